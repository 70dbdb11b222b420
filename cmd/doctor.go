package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/k1LoW/sensepanel"
	"github.com/k1LoW/sensepanel/config"
	"github.com/spf13/cobra"
)

const doctorPingTimeout = 5 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check sensepanel environment and configuration",
	Long:  `Check sensepanel environment and configuration to ensure everything is set up correctly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Color setup
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		bold := color.New(color.Bold)

		allOK := true

		// 1. Check configuration file
		cmd.Print("🔧 Checking configuration file ... ")
		p := configPath
		if p == "" {
			var err error
			p, err = config.Path(profile)
			if err != nil {
				red.Println("✗ ERROR")
				cmd.Printf("   %v\n", err)
				return nil
			}
		}
		cfg, err := loadConfig()
		switch {
		case err != nil:
			red.Println("✗ CONFIG ERROR")
			cmd.Printf("   Error loading config: %v\n", err)
			cmd.Println()
			red.Println("⚠️  Setup is incomplete.")
			return nil
		case p == "":
			yellow.Println("⚠️ NOT FOUND")
			cmd.Println("   Using built-in defaults")
		default:
			green.Println("✓ OK")
			cmd.Printf("   Config file: %s\n", p)
		}

		// 2. Check fonts
		cmd.Print("🔤 Checking fonts ... ")
		if err := checkFonts(cfg); err != nil {
			red.Println("✗ NOT LOADABLE")
			cmd.Printf("   %v\n", err)
			allOK = false
		} else {
			green.Println("✓ OK")
		}

		// 3. Check icons
		cmd.Print("🖼  Checking power icon ... ")
		if cfg.Icons.Power == "" {
			yellow.Println("⚠️ NOT SET")
		} else if _, err := sensepanel.LoadIcon(filepath.Clean(cfg.Icons.Power)); err != nil {
			red.Println("✗ NOT LOADABLE")
			cmd.Printf("   %v\n", err)
			allOK = false
		} else {
			green.Println("✓ OK")
			cmd.Printf("   Icon file: %s\n", cfg.Icons.Power)
		}

		// 4. Check label templates
		cmd.Print("🏷  Checking labels ... ")
		l := sensepanel.Labels{Date: cfg.Labels.Date, Weekday: cfg.Labels.Weekday, UpdateTime: cfg.Labels.UpdateTime}
		if err := l.Validate(time.Now()); err != nil {
			red.Println("✗ INVALID")
			cmd.Printf("   %v\n", err)
			allOK = false
		} else {
			green.Println("✓ OK")
		}

		// 5. Check InfluxDB
		cmd.Print("📡 Checking InfluxDB ... ")
		if err := pingInflux(ctx, cfg); err != nil {
			red.Println("✗ UNREACHABLE")
			cmd.Printf("   %v\n", err)
			allOK = false
		} else {
			green.Println("✓ OK")
			cmd.Printf("   InfluxDB: %s (database %s)\n", cfg.Influx.URL, cfg.Influx.Database)
		}

		// Final message
		cmd.Println()
		if allOK {
			bold.Printf("🎉 ")
			green.Print("All checks passed! You are ready to use sensepanel")
			bold.Println(".")
			cmd.Println()
			cmd.Println("Try rendering the dashboard:")
			yellow.Println("  sensepanel render --out panel.png")
		} else {
			red.Println("⚠️  Setup is incomplete.")
			cmd.Println("\nPlease fix the issues above to use sensepanel properly.")
		}

		return nil
	},
}

func checkFonts(cfg *config.Config) error {
	fs, err := sensepanel.LoadFaces(cfg)
	if err != nil {
		return err
	}
	return fs.Close()
}

func pingInflux(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, doctorPingTimeout)
	defer cancel()
	c := sensepanel.NewInfluxClient(cfg.Influx, cfg.Timeout(), nil)
	return c.Ping(ctx)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
