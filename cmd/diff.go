package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/k1LoW/sensepanel"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [A_PNG] [B_PNG]",
	Short: "compare two rendered dashboards",
	Long:  `compare two rendered dashboards by checksum and perceptual hash. It exits with status 1 when they differ.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := sensepanel.NewImageFromFile(args[0])
		if err != nil {
			return err
		}
		b, err := sensepanel.NewImageFromFile(args[1])
		if err != nil {
			return err
		}
		result, err := compareImages(a, b)
		if err != nil {
			return err
		}
		switch result.verdict {
		case verdictIdentical:
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "identical")
		case verdictEquivalent:
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "equivalent (distance %d)\n", result.distance)
		default:
			color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "different (distance %d)\n", result.distance)
			return fmt.Errorf("%s and %s differ", args[0], args[1])
		}
		return nil
	},
}

type verdict int

const (
	verdictIdentical verdict = iota
	verdictEquivalent
	verdictDifferent
)

type comparison struct {
	verdict  verdict
	distance int
}

func compareImages(a, b *sensepanel.Image) (comparison, error) {
	if a.Identical(b) {
		return comparison{verdict: verdictIdentical}, nil
	}
	d, err := a.Distance(b)
	if err != nil {
		return comparison{}, err
	}
	if a.Equivalent(b) {
		return comparison{verdict: verdictEquivalent, distance: d}, nil
	}
	return comparison{verdict: verdictDifferent, distance: d}, nil
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
