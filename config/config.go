package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/k1LoW/expand"
)

var (
	homePath       string
	configHomePath string
	stateHomePath  string
)

const (
	DefaultInfluxURL   = "http://localhost:8086"
	DefaultDatabase    = "sensor"
	DefaultMeasurement = "sensor"
	DefaultWindow      = "1h"
	DefaultTimeout     = "30s"
	DefaultFontDir     = "/usr/share/fonts/opentype"
	DefaultPowerIcon   = "../img/power.png"
)

type Config struct {
	// InfluxDB connection and schema
	Influx Influx `yaml:"influx,omitempty" json:"influx,omitempty"`
	// Monitored locations, drawn in this order
	Places []Place `yaml:"places,omitempty" json:"places,omitempty"`
	// Host tag of the power meter
	PowerHost string `yaml:"powerHost,omitempty" json:"powerHost,omitempty"`
	// Font family name to font file path
	Fonts map[string]string `yaml:"fonts,omitempty" json:"fonts,omitempty"`
	// Face name to pixel size override
	Faces map[string]float64 `yaml:"faces,omitempty" json:"faces,omitempty"`
	// Icon files
	Icons Icons `yaml:"icons,omitempty" json:"icons,omitempty"`
	// CEL templates for footer and update time strings
	Labels Labels `yaml:"labels,omitempty" json:"labels,omitempty"`
	// command receiving the rendered PNG on stdin
	PublishCommand string `yaml:"publishCommand,omitempty" json:"publishCommand,omitempty"`
}

type Influx struct {
	URL         string `yaml:"url,omitempty" json:"url,omitempty"`
	Database    string `yaml:"database,omitempty" json:"database,omitempty"`
	Measurement string `yaml:"measurement,omitempty" json:"measurement,omitempty"`
	Window      string `yaml:"window,omitempty" json:"window,omitempty"`   // InfluxQL duration literal, e.g. 1h
	Timeout     string `yaml:"timeout,omitempty" json:"timeout,omitempty"` // Go duration, e.g. 30s
	RetryMax    int    `yaml:"retryMax,omitempty" json:"retryMax,omitempty"`
	Fields      Fields `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Fields maps reading kinds to InfluxDB field names.
type Fields struct {
	Temperature string `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Humidity    string `yaml:"humidity,omitempty" json:"humidity,omitempty"`
	CO2         string `yaml:"co2,omitempty" json:"co2,omitempty"`
	Power       string `yaml:"power,omitempty" json:"power,omitempty"`
}

type Place struct {
	Name string `yaml:"name" json:"name"`
	Host string `yaml:"host" json:"host"`
}

type Icons struct {
	Power string `yaml:"power,omitempty" json:"power,omitempty"`
	// Square size in pixels the power icon is scaled to. 0 keeps the file's size.
	PowerSize int `yaml:"powerSize,omitempty" json:"powerSize,omitempty"`
}

type Labels struct {
	Date       string `yaml:"date,omitempty" json:"date,omitempty"`
	Weekday    string `yaml:"weekday,omitempty" json:"weekday,omitempty"`
	UpdateTime string `yaml:"updateTime,omitempty" json:"updateTime,omitempty"`
}

func init() {
	var err error
	homePath, err = os.UserHomeDir()
	if err != nil {
		panic(fmt.Sprintf("failed to get home directory: %v", err))
	}
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load loads the configuration from the config file.
// It searches for config files in the following order:
// 1. $XDG_CONFIG_HOME/sensepanel/config-{profile}.yml
// 2. $XDG_CONFIG_HOME/sensepanel/config.yml
// If no config file is found, it returns the default Config.
func Load(profile string) (*Config, error) {
	p, err := Path(profile)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return Default(), nil
	}
	return LoadFile(p)
}

// Path returns the config file Load would read, or "" when none exists.
func Path(profile string) (string, error) {
	var configBasePaths []string
	if profile != "" {
		configBasePaths = append(configBasePaths, filepath.Join(configPath(), fmt.Sprintf("config-%s", profile)))
	}
	configBasePaths = append(configBasePaths, filepath.Join(configPath(), "config"))
	for _, basePath := range configBasePaths {
		for _, ext := range []string{".yml", ".yaml"} {
			p := basePath + ext
			fi, err := os.Stat(p)
			if err == nil && !fi.IsDir() {
				return p, nil
			}
			if err != nil && !os.IsNotExist(err) {
				return "", fmt.Errorf("failed to stat config: %w", err)
			}
		}
	}
	return "", nil
}

// LoadFile loads the configuration from path. Environment variables in the file are expanded.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(expand.ExpandenvYAMLBytes(b), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration values that can never render.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Influx.Timeout); err != nil {
		return fmt.Errorf("invalid influx.timeout %q: %w", c.Influx.Timeout, err)
	}
	if c.Influx.RetryMax < 0 {
		return fmt.Errorf("invalid influx.retryMax: %d", c.Influx.RetryMax)
	}
	seen := map[string]struct{}{}
	for i, p := range c.Places {
		if p.Name == "" || p.Host == "" {
			return fmt.Errorf("places[%d]: name and host are required", i)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("places[%d]: duplicate place name %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	for name, size := range c.Faces {
		if size <= 0 {
			return fmt.Errorf("faces.%s: size must be positive", name)
		}
	}
	if c.Icons.PowerSize < 0 {
		return fmt.Errorf("invalid icons.powerSize: %d", c.Icons.PowerSize)
	}
	return nil
}

// Timeout returns the parsed HTTP timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Influx.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func (c *Config) setDefaults() {
	if c.Influx.URL == "" {
		c.Influx.URL = DefaultInfluxURL
	}
	if c.Influx.Database == "" {
		c.Influx.Database = DefaultDatabase
	}
	if c.Influx.Measurement == "" {
		c.Influx.Measurement = DefaultMeasurement
	}
	if c.Influx.Window == "" {
		c.Influx.Window = DefaultWindow
	}
	if c.Influx.Timeout == "" {
		c.Influx.Timeout = DefaultTimeout
	}
	if c.Influx.Fields.Temperature == "" {
		c.Influx.Fields.Temperature = "temp"
	}
	if c.Influx.Fields.Humidity == "" {
		c.Influx.Fields.Humidity = "humi"
	}
	if c.Influx.Fields.CO2 == "" {
		c.Influx.Fields.CO2 = "co2"
	}
	if c.Influx.Fields.Power == "" {
		c.Influx.Fields.Power = "power"
	}
	if c.Places == nil {
		c.Places = []Place{
			{Name: "リビング", Host: "rasp-meter-1"},
			{Name: "和室", Host: "rasp-meter-2"},
			{Name: "家事室", Host: "rasp-meter-4"},
			{Name: "書斎", Host: "rasp-meter-3"},
		}
	}
	if c.PowerHost == "" {
		c.PowerHost = "rasp-meter-5"
	}
	if c.Fonts == nil {
		c.Fonts = map[string]string{}
	}
	for family, file := range defaultFonts {
		if _, ok := c.Fonts[family]; !ok {
			c.Fonts[family] = filepath.Join(DefaultFontDir, file)
		}
	}
	if c.Icons.Power == "" {
		c.Icons.Power = DefaultPowerIcon
	}
	if c.Labels.Date == "" {
		c.Labels.Date = "{{month}}/{{day}}"
	}
	if c.Labels.Weekday == "" {
		c.Labels.Weekday = "({{wday}})"
	}
	if c.Labels.UpdateTime == "" {
		c.Labels.UpdateTime = "{{date}} {{time}} 更新"
	}
}

var defaultFonts = map[string]string{
	"shingo-regular":   "ShinGoPro/A-OTF-ShinGoPro-Regular.otf",
	"shingo-medium":    "ShinGoPro/A-OTF-ShinGoPro-Medium.otf",
	"shingo-bold":      "ShinGoPro/A-OTF-ShinGoPro-Bold.otf",
	"futura-cond-bold": "Futura/FuturaStd-CondensedBold.otf",
	"futura-cond":      "Futura/FuturaStd-Condensed.otf",
	"futura-medium":    "Futura/FuturaStd-Medium.otf",
	"futura-bold":      "Futura/FuturaStd-Bold.otf",
}

// configPath returns the path to the configuration directory.
func configPath() string {
	if configHomePath != "" {
		return configHomePath
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		configHomePath = filepath.Join(v, "sensepanel")
	} else {
		configHomePath = filepath.Join(homePath, ".config", "sensepanel")
	}
	return configHomePath
}

// StateHomePath returns the path to the state home directory.
func StateHomePath() string {
	if stateHomePath != "" {
		return stateHomePath
	}
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		stateHomePath = filepath.Join(v, "sensepanel")
	} else {
		stateHomePath = filepath.Join(homePath, ".local", "state", "sensepanel")
	}
	return stateHomePath
}
