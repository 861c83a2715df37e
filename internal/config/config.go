// internal/config/config.go - Configuration management
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/style"
)

// Config represents the complete application configuration
type Config struct {
	Mapbox   MapboxConfig   `mapstructure:"mapbox"`
	Source   SourceConfig   `mapstructure:"source"`
	Boundary BoundaryConfig `mapstructure:"boundary"`
	Local    LocalConfig    `mapstructure:"local"`
	Styles   style.Table    `mapstructure:"styles"`
	Render   RenderConfig   `mapstructure:"render"`
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Network  NetworkConfig  `mapstructure:"network"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MapboxConfig addresses the static image rendering backend
type MapboxConfig struct {
	staticmap.Config `mapstructure:",squash"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// SourceConfig determines the boundary source type and behavior
type SourceConfig struct {
	Type        string `mapstructure:"type"`
	DefaultType string `mapstructure:"default_type"`
	AutoDetect  bool   `mapstructure:"auto_detect"`
}

// BoundaryConfig contains the area API configuration for HTTP sources
type BoundaryConfig struct {
	BaseURL     string            `mapstructure:"base_url"`
	APIKey      string            `mapstructure:"api_key"`
	Headers     map[string]string `mapstructure:"headers"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	URLTemplate string            `mapstructure:"url_template"`
}

// LocalConfig contains configuration for GeoJSON files on disk
type LocalConfig struct {
	BasePath     string `mapstructure:"base_path"`
	PathTemplate string `mapstructure:"path_template"`
	Extension    string `mapstructure:"extension"`
	Compressed   bool   `mapstructure:"compressed"`
}

// RenderConfig contains the default image size
type RenderConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	WatchConfig       bool          `mapstructure:"watch_config"`
}

// CacheConfig selects and sizes the rendered image cache
type CacheConfig struct {
	Driver    string        `mapstructure:"driver"`
	Size      int           `mapstructure:"size"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// BatchConfig contains batch rendering configuration
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	FailOnError bool          `mapstructure:"fail_on_error"`
	OutputDir   string        `mapstructure:"output_dir"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	ProxyURL         string        `mapstructure:"proxy_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	KeepAlive        time.Duration `mapstructure:"keep_alive"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	IdleConnTimeout  time.Duration `mapstructure:"idle_conn_timeout"`
	DisableKeepAlive bool          `mapstructure:"disable_keep_alive"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Output  string `mapstructure:"output"`
	Verbose bool   `mapstructure:"verbose"`
}

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from the given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Set default values
	SetDefaults(v)

	var config Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&config, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Config files may override only part of a style
	config.Styles = style.DefaultTable().Merge(config.Styles)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Rendering backend defaults
	v.SetDefault("mapbox.base_url", staticmap.DefaultBaseURL)
	v.SetDefault("mapbox.username", staticmap.DefaultUsername)
	v.SetDefault("mapbox.style_id", staticmap.DefaultStyleID)
	v.SetDefault("mapbox.access_token", "")
	v.SetDefault("mapbox.padding", staticmap.DefaultPadding)
	v.SetDefault("mapbox.timeout", 30*time.Second)

	// Source defaults
	v.SetDefault("source.type", "auto")
	v.SetDefault("source.default_type", "http")
	v.SetDefault("source.auto_detect", true)

	// Boundary API defaults
	v.SetDefault("boundary.base_url", "")
	v.SetDefault("boundary.api_key", "")
	v.SetDefault("boundary.timeout", 15*time.Second)
	v.SetDefault("boundary.url_template", "{base_url}/{area_type}/{code}/boundary")

	// Local file defaults
	v.SetDefault("local.base_path", "")
	v.SetDefault("local.path_template", "{base_path}/{area_type}/{code}{extension}")
	v.SetDefault("local.extension", ".geojson")
	v.SetDefault("local.compressed", false)

	// Style defaults, one key per field so environment overrides resolve
	for name, d := range style.DefaultTable() {
		v.SetDefault("styles."+name+".stroke", d.Stroke)
		v.SetDefault("styles."+name+".fill", d.Fill)
		v.SetDefault("styles."+name+".order", d.Order)
		v.SetDefault("styles."+name+".tolerance", d.Tolerance)
	}

	// Render defaults
	v.SetDefault("render.width", 600)
	v.SetDefault("render.height", 400)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 16<<20)
	v.SetDefault("server.watch_config", false)

	// Cache defaults
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", 24*time.Hour)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.timeout", 10*time.Minute)
	v.SetDefault("batch.fail_on_error", false)
	v.SetDefault("batch.output_dir", "./maps")

	// Network defaults
	v.SetDefault("network.user_agent", "BoundaryStaticmap/1.0")
	v.SetDefault("network.keep_alive", 30*time.Second)
	v.SetDefault("network.max_idle_conns", 100)
	v.SetDefault("network.idle_conn_timeout", 90*time.Second)
	v.SetDefault("network.disable_keep_alive", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.verbose", false)
}

// DetermineSourceType automatically determines the source type based on configuration
func (c *Config) DetermineSourceType() internal.SourceType {
	// An explicit type always wins
	switch c.Source.Type {
	case "local":
		return internal.SourceTypeLocal
	case "http":
		return internal.SourceTypeHTTP
	}

	// Auto-detection logic
	if c.Source.AutoDetect {
		if c.Local.BasePath != "" && c.Boundary.BaseURL == "" {
			return internal.SourceTypeLocal
		}
		if c.Boundary.BaseURL != "" && c.Local.BasePath == "" {
			return internal.SourceTypeHTTP
		}
	}

	// Default to configured default type
	if c.Source.DefaultType == "local" {
		return internal.SourceTypeLocal
	}
	return internal.SourceTypeHTTP
}

// StaticMap returns the builder configuration for the rendering backend
func (c *Config) StaticMap() staticmap.Config {
	return c.Mapbox.Config
}

// DefaultSize returns the configured default image size
func (c *Config) DefaultSize() staticmap.Size {
	return staticmap.NewSize(c.Render.Width, c.Render.Height)
}

// OutputPath builds the image path of an area inside the batch output directory
func (c *Config) OutputPath(areaType internal.AreaType, code string) string {
	return filepath.Join(c.Batch.OutputDir, areaType.String(), code+".png")
}
