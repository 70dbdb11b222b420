package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	// Reset configHomePath
	configHomePath = ""
	t.Cleanup(func() { configHomePath = "" })

	dir := filepath.Join(tmpDir, "sensepanel")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create sensepanel directory: %v", err)
	}
	if name == "" {
		return dir
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return p
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		configYAML string
		profile    string
		want       func(*Config)
	}{
		{
			name: "no config file",
			want: func(c *Config) {},
		},
		{
			name: "override influx",
			file: "config.yml",
			configYAML: `
influx:
  url: http://influx.local:8086
  database: home
  retryMax: 3
`,
			want: func(c *Config) {
				c.Influx.URL = "http://influx.local:8086"
				c.Influx.Database = "home"
				c.Influx.RetryMax = 3
			},
		},
		{
			name: "places replace the defaults",
			file: "config.yaml",
			configYAML: `
places:
  - name: Kitchen
    host: pi-1
powerHost: pi-9
`,
			want: func(c *Config) {
				c.Places = []Place{{Name: "Kitchen", Host: "pi-1"}}
				c.PowerHost = "pi-9"
			},
		},
		{
			name:    "profile",
			file:    "config-office.yml",
			profile: "office",
			configYAML: `
labels:
  updateTime: "updated {{time}}"
`,
			want: func(c *Config) {
				c.Labels.UpdateTime = "updated {{time}}"
			},
		},
		{
			name: "font override keeps other families",
			file: "config.yml",
			configYAML: `
fonts:
  futura-bold: /opt/fonts/bold.otf
faces:
  time: 24
`,
			want: func(c *Config) {
				c.Fonts["futura-bold"] = "/opt/fonts/bold.otf"
				c.Faces = map[string]float64{"time": 24}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.file, tt.configYAML)
			got, err := Load(tt.profile)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			want := Default()
			tt.want(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadProfileFallback(t *testing.T) {
	writeConfig(t, "config.yml", "powerHost: fallback\n")
	got, err := Load("missing")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.PowerHost != "fallback" {
		t.Errorf("PowerHost = %q, want %q", got.PowerHost, "fallback")
	}
}

func TestPath(t *testing.T) {
	dir := writeConfig(t, "", "")
	got, err := Path("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Path() = %q, want empty", got)
	}

	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = Path("")
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("Path() = %q, want %q", got, p)
	}
}

func TestLoadFileExpandsEnv(t *testing.T) {
	t.Setenv("SENSEPANEL_TEST_INFLUX_URL", "http://10.0.0.5:8086")
	p := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(p, []byte("influx:\n  url: ${SENSEPANEL_TEST_INFLUX_URL}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if want := "http://10.0.0.5:8086"; got.Influx.URL != want {
		t.Errorf("Influx.URL = %q, want %q", got.Influx.URL, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"invalid timeout", func(c *Config) { c.Influx.Timeout = "soon" }, true},
		{"negative retry", func(c *Config) { c.Influx.RetryMax = -1 }, true},
		{"place without host", func(c *Config) { c.Places = []Place{{Name: "Room"}} }, true},
		{"duplicate place", func(c *Config) {
			c.Places = []Place{{Name: "Room", Host: "a"}, {Name: "Room", Host: "b"}}
		}, true},
		{"zero face size", func(c *Config) { c.Faces = map[string]float64{"time": 0} }, true},
		{"negative icon size", func(c *Config) { c.Icons.PowerSize = -10 }, true},
		{"no places", func(c *Config) { c.Places = []Place{} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	c := Default()
	c.Influx.Timeout = "5s"
	if got := c.Timeout().String(); got != "5s" {
		t.Errorf("Timeout() = %s, want 5s", got)
	}
}
