/*
Copyright © 2025 Ken'ichiro Oyama <k1lowxb@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/k1LoW/errors"
	"github.com/k1LoW/sensepanel"
	"github.com/k1LoW/sensepanel/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	outPath     string
	dataPath    string
	watchMode   bool
	interval    time.Duration
	skipSimilar bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "render the dashboard as PNG",
	Long:  `render the dashboard as PNG. The image is written to stdout unless --out is given.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		if watchMode && outPath == "" {
			return fmt.Errorf("--watch requires --out")
		}
		s := &renderSession{
			logger:      logger,
			out:         outPath,
			data:        dataPath,
			skipSimilar: skipSimilar,
		}
		if !watchMode {
			return s.step(cmd.Context())
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		targets, err := watchTargets()
		if err != nil {
			return err
		}
		if len(targets) == 0 && interval <= 0 {
			return fmt.Errorf("nothing to watch: no config or data file, and no --interval")
		}
		if err := s.step(ctx); err != nil {
			return err
		}
		return watch(ctx, logger, targets, interval, s.step)
	},
}

// renderSession renders repeatedly into the same output, remembering the last image written.
type renderSession struct {
	logger      *slog.Logger
	out         string
	data        string
	skipSimilar bool
	prev        *sensepanel.Image
}

func (s *renderSession) step(ctx context.Context) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := sensepanel.New(
		sensepanel.WithConfig(cfg),
		sensepanel.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := loadOrFetch(ctx, r, s.data)
	if err != nil {
		return err
	}
	c, err := r.RenderData(data)
	if err != nil {
		return err
	}
	b, err := c.PNG()
	if err != nil {
		return err
	}
	img, err := sensepanel.NewImageFromBytes(b)
	if err != nil {
		return err
	}
	if s.prev == nil && s.out != "" {
		if prev, err := sensepanel.NewImageFromFile(s.out); err == nil {
			s.prev = prev
		}
	}
	if s.unchanged(img) {
		s.logger.Info("render skipped", slog.String("out", s.out))
		return nil
	}
	if err := writeOutput(s.out, b); err != nil {
		return err
	}
	s.prev = img
	if cfg.PublishCommand != "" {
		if err := sensepanel.NewCommandPublisher(cfg.PublishCommand).Publish(ctx, b, s.out); err != nil {
			return err
		}
		s.logger.Info("published", slog.Int("size", len(b)))
	}
	return nil
}

// unchanged reports whether img may be skipped because the last written image matches it.
// Output to stdout is never skipped.
func (s *renderSession) unchanged(img *sensepanel.Image) bool {
	if s.out == "" || s.prev == nil {
		return false
	}
	if s.skipSimilar {
		return s.prev.Equivalent(img)
	}
	return s.prev.Identical(img)
}

// loadOrFetch reads data from path, or queries InfluxDB when path is empty.
func loadOrFetch(ctx context.Context, r *sensepanel.Renderer, path string) (*sensepanel.Data, error) {
	if path == "" {
		return r.Fetch(ctx)
	}
	return readData(path)
}

func readData(path string) (*sensepanel.Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	data := &sensepanel.Data{}
	if err := json.Unmarshal(b, data); err != nil {
		return nil, fmt.Errorf("failed to decode data file %s: %w", path, err)
	}
	if data.Now.IsZero() {
		data.Now = time.Now()
	}
	return data, nil
}

// writeOutput writes b to path through a temporary file in the same directory, or to stdout when path is empty.
func writeOutput(path string, b []byte) error {
	if path == "" {
		if _, err := os.Stdout.Write(b); err != nil {
			return fmt.Errorf("failed to write png to stdout: %w", err)
		}
		return nil
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// watchTargets returns the files whose changes trigger a new render.
func watchTargets() ([]string, error) {
	var targets []string
	p := configPath
	if p == "" {
		var err error
		p, err = config.Path(profile)
		if err != nil {
			return nil, err
		}
	}
	if p != "" {
		targets = append(targets, p)
	}
	if dataPath != "" {
		targets = append(targets, dataPath)
	}
	return targets, nil
}

// watch calls step whenever a target file is written and on every tick of interval.
// Failed renders are logged and do not stop the loop.
func watch(ctx context.Context, logger *slog.Logger, targets []string, interval time.Duration, step func(context.Context) error) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	watched := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, t := range targets {
		abs, err := filepath.Abs(t)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", t, err)
		}
		watched[abs] = struct{}{}
		// Editors and writeOutput replace files, so the directory is watched.
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}

	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				abs, err := filepath.Abs(ev.Name)
				if err != nil {
					continue
				}
				if _, ok := watched[abs]; !ok {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					logger.Debug("file changed", slog.String("path", abs), slog.String("op", ev.Op.String()))
					notify()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return fmt.Errorf("failed to watch files: %w", err)
			}
		}
	})
	if interval > 0 {
		eg.Go(func() error {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					notify()
				}
			}
		})
	}
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-trigger:
				if err := step(ctx); err != nil {
					logger.Error("failed to render", slog.String("error", err.Error()))
				}
			}
		}
	})
	return eg.Wait()
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output PNG file (default stdout)")
	renderCmd.Flags().StringVarP(&dataPath, "data", "d", "", "render data from a JSON file instead of querying InfluxDB")
	renderCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "render again when the config or data file changes")
	renderCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "render again at this interval while watching")
	renderCmd.Flags().BoolVarP(&skipSimilar, "skip-similar", "", false, "skip writing when the image is perceptually equivalent to the last one")
}
