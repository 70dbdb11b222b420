package sensepanel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/exec"
)

// Environment variable names for the publish command.
const (
	EnvPNGSize = "SENSEPANEL_PNG_SIZE"
	EnvPNGPath = "SENSEPANEL_PNG_PATH"
)

// Publisher hands a rendered PNG to wherever the panel picks it up.
type Publisher interface {
	Publish(ctx context.Context, png []byte, path string) error
}

// CommandPublisher runs a shell command with the PNG on stdin.
type CommandPublisher struct {
	command string
}

var _ Publisher = (*CommandPublisher)(nil)

func NewCommandPublisher(command string) *CommandPublisher {
	return &CommandPublisher{command: command}
}

// Publish runs the command. SENSEPANEL_PNG_SIZE holds the byte size of png and
// SENSEPANEL_PNG_PATH the output file, empty when the PNG went to stdout.
func (p *CommandPublisher) Publish(ctx context.Context, png []byte, path string) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if strings.TrimSpace(p.command) == "" {
		return nil
	}
	c, args, err := buildCommand(p.command)
	if err != nil {
		return fmt.Errorf("failed to build publish command: %w", err)
	}
	cmd := exec.CommandContext(ctx, c, args...)
	cmd.Stdin = bytes.NewReader(png)
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", EnvPNGSize, strconv.Itoa(len(png))))
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", EnvPNGPath, path))

	var stderr bytes.Buffer
	cmd.Stdout = os.Stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run publish command: %w\nstderr: %s", err, stderr.String())
	}
	return nil
}

// buildCommand wraps cmdStr in the user's shell.
func buildCommand(cmdStr string) (string, []string, error) {
	shell, err := detectShell()
	if err != nil {
		return "", nil, err
	}
	return shell, []string{"-c", cmdStr}, nil
}

func detectShell() (string, error) {
	shells := []string{
		os.Getenv("SHELL"),
		"/bin/bash",
		"/bin/sh",
	}
	for _, shell := range shells {
		if shell == "" {
			continue
		}
		if _, err := os.Stat(shell); err == nil {
			return shell, nil
		}
	}
	return "", fmt.Errorf("failed to detect shell")
}
