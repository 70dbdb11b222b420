package cmd

import (
	"fmt"
	"os"

	"github.com/k1LoW/sensepanel"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "render the dashboard and open it in the default viewer",
	Long:  `render the dashboard into a temporary file and open it in the default viewer.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, err := sensepanel.New(
			sensepanel.WithConfig(cfg),
			sensepanel.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		defer r.Close()
		data, err := loadOrFetch(cmd.Context(), r, dataPath)
		if err != nil {
			return err
		}
		c, err := r.RenderData(data)
		if err != nil {
			return err
		}
		f, err := os.CreateTemp("", "sensepanel-*.png")
		if err != nil {
			return fmt.Errorf("failed to create temporary file: %w", err)
		}
		if err := c.EncodePNG(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", f.Name(), err)
		}
		cmd.Println(f.Name())
		return browser.OpenFile(f.Name())
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVarP(&dataPath, "data", "d", "", "render data from a JSON file instead of querying InfluxDB")
}
