// internal/config/config_test.go - Unit tests for configuration loading
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/boundary_staticmap/internal"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Mapbox.BaseURL != "https://api.mapbox.com" {
		t.Errorf("Expected default base URL, got %s", cfg.Mapbox.BaseURL)
	}
	if cfg.Mapbox.Padding != 20 {
		t.Errorf("Expected default padding 20, got %d", cfg.Mapbox.Padding)
	}
	if cfg.Mapbox.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", cfg.Mapbox.Timeout)
	}
	if cfg.DefaultSize().String() != "600x400" {
		t.Errorf("Expected default size 600x400, got %s", cfg.DefaultSize())
	}
	if len(cfg.Styles) != 4 {
		t.Errorf("Expected 4 default styles, got %d", len(cfg.Styles))
	}
	if cfg.Styles["village"].Tolerance != 0.0005 {
		t.Errorf("Expected village tolerance 0.0005, got %f", cfg.Styles["village"].Tolerance)
	}
}

func TestLoadFrom_ConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
mapbox:
  access_token: pk.file
  style_id: streets-v12
  timeout: 5s
styles:
  province:
    tolerance: 0.012
render:
  width: 800
cache:
  driver: none
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.StaticMap().AccessToken != "pk.file" || cfg.StaticMap().StyleID != "streets-v12" {
		t.Errorf("Expected file values, got %+v", cfg.StaticMap())
	}
	if cfg.Mapbox.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.Mapbox.Timeout)
	}
	province := cfg.Styles["province"]
	if province.Tolerance != 0.012 {
		t.Errorf("Expected overridden tolerance, got %f", province.Tolerance)
	}
	if province.Stroke != "#2563eb" {
		t.Errorf("Expected default stroke to survive a partial override, got %s", province.Stroke)
	}
	if cfg.Render.Width != 800 || cfg.Render.Height != 400 {
		t.Errorf("Expected 800x400, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
}

func TestLoadFrom_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STATICMAP_MAPBOX_ACCESS_TOKEN", "pk.env")
	t.Setenv("STATICMAP_STYLES_REGENCY_STROKE", "#000000")

	v := viper.New()
	v.SetEnvPrefix("STATICMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Mapbox.AccessToken != "pk.env" {
		t.Errorf("Expected token from environment, got %q", cfg.Mapbox.AccessToken)
	}
	if cfg.Styles["regency"].Stroke != "#000000" {
		t.Errorf("Expected stroke from environment, got %s", cfg.Styles["regency"].Stroke)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFrom(viper.New())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad source type", func(c *Config) { c.Source.Type = "ftp" }, true},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Driver = "redis"; c.Cache.RedisAddr = "" }, true},
		{"zero width", func(c *Config) { c.Render.Width = 0 }, true},
		{"oversized height", func(c *Config) { c.Render.Height = 2000 }, true},
		{"bad stroke", func(c *Config) {
			d := c.Styles["district"]
			d.Stroke = "orange"
			c.Styles["district"] = d
		}, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad boundary url", func(c *Config) { c.Boundary.BaseURL = "not a url" }, true},
		{"no concurrency", func(c *Config) { c.Batch.Concurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetermineSourceType(t *testing.T) {
	tests := []struct {
		name     string
		source   SourceConfig
		baseURL  string
		basePath string
		expected internal.SourceType
	}{
		{"explicit local", SourceConfig{Type: "local"}, "http://api", "", internal.SourceTypeLocal},
		{"explicit http", SourceConfig{Type: "http"}, "", "/data", internal.SourceTypeHTTP},
		{"auto local", SourceConfig{Type: "auto", AutoDetect: true}, "", "/data", internal.SourceTypeLocal},
		{"auto http", SourceConfig{Type: "auto", AutoDetect: true}, "http://api", "", internal.SourceTypeHTTP},
		{"auto ambiguous uses default", SourceConfig{Type: "auto", AutoDetect: true, DefaultType: "local"}, "http://api", "/data", internal.SourceTypeLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Source: tt.source}
			cfg.Boundary.BaseURL = tt.baseURL
			cfg.Local.BasePath = tt.basePath
			if got := cfg.DetermineSourceType(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := &Config{Batch: BatchConfig{OutputDir: "out"}}
	expected := filepath.Join("out", "regency", "3171.png")
	if got := cfg.OutputPath(internal.AreaRegency, "3171"); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}
