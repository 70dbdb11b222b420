package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/k1LoW/sensepanel"
	"github.com/spf13/cobra"
)

var fetchFormat string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "fetch sensor data from InfluxDB and print it",
	Long:  `fetch sensor data from InfluxDB and print it. The JSON output can be rendered later with render --data.`,
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
		f := sensepanel.NewInfluxClient(cfg.Influx, cfg.Timeout(), logger)
		data, err := sensepanel.FetchData(cmd.Context(), f, cfg, time.Now)
		if err != nil {
			return err
		}
		b, err := marshalData(data, fetchFormat)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(b); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
		return nil
	},
}

func marshalData(data *sensepanel.Data, format string) ([]byte, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		return append(b, '\n'), nil
	case "yaml":
		b, err := yaml.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchFormat, "format", "f", "json", "output format (json, yaml)")
}
