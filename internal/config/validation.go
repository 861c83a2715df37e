// internal/config/validation.go - Configuration validation
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/afero"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

// Validate validates the configuration structure and values
func Validate(config *Config) error {
	if err := validateMapbox(&config.Mapbox); err != nil {
		return fmt.Errorf("mapbox configuration invalid: %w", err)
	}

	if err := validateSource(config); err != nil {
		return fmt.Errorf("source configuration invalid: %w", err)
	}

	if err := config.Styles.Validate(); err != nil {
		return fmt.Errorf("styles configuration invalid: %w", err)
	}

	if err := validateRender(&config.Render); err != nil {
		return fmt.Errorf("render configuration invalid: %w", err)
	}

	if err := validateServer(&config.Server); err != nil {
		return fmt.Errorf("server configuration invalid: %w", err)
	}

	if err := validateCache(&config.Cache); err != nil {
		return fmt.Errorf("cache configuration invalid: %w", err)
	}

	if err := validateBatch(&config.Batch); err != nil {
		return fmt.Errorf("batch configuration invalid: %w", err)
	}

	if err := validateNetwork(&config.Network); err != nil {
		return fmt.Errorf("network configuration invalid: %w", err)
	}

	if err := validateLogging(&config.Logging); err != nil {
		return fmt.Errorf("logging configuration invalid: %w", err)
	}

	return nil
}

// validateMapbox validates the rendering backend parameters.
// A missing access token is reported by the URL builders, not here.
func validateMapbox(config *MapboxConfig) error {
	if config.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	if config.Padding < 0 {
		return fmt.Errorf("padding must be non-negative")
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// validateSource validates the boundary source parameters
func validateSource(config *Config) error {
	validTypes := []string{"auto", "http", "local"}
	if !contains(validTypes, config.Source.Type) {
		return fmt.Errorf("invalid type: %s, must be one of %v", config.Source.Type, validTypes)
	}

	if config.Boundary.BaseURL != "" {
		if _, err := url.ParseRequestURI(config.Boundary.BaseURL); err != nil {
			return fmt.Errorf("invalid boundary base_url: %w", err)
		}
	}

	if config.Boundary.Timeout <= 0 {
		return fmt.Errorf("boundary timeout must be positive")
	}

	if config.Local.PathTemplate == "" {
		return fmt.Errorf("local path_template is required")
	}

	return nil
}

// validateRender validates the default image size
func validateRender(config *RenderConfig) error {
	if config.Width <= 0 || config.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}

	if config.Width > staticmap.MaxDimension || config.Height > staticmap.MaxDimension {
		return fmt.Errorf("width and height must not exceed %d", staticmap.MaxDimension)
	}

	return nil
}

// validateServer validates HTTP server parameters
func validateServer(config *ServerConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("addr is required")
	}

	if config.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	return nil
}

// validateCache validates image cache parameters
func validateCache(config *CacheConfig) error {
	validDrivers := []string{"none", "memory", "redis"}
	if !contains(validDrivers, config.Driver) {
		return fmt.Errorf("invalid driver: %s, must be one of %v", config.Driver, validDrivers)
	}

	if strings.EqualFold(config.Driver, "memory") && config.Size <= 0 {
		return fmt.Errorf("size must be positive for the memory driver")
	}

	if strings.EqualFold(config.Driver, "redis") && config.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required for the redis driver")
	}

	if config.TTL < 0 {
		return fmt.Errorf("ttl must be non-negative")
	}

	return nil
}

// validateBatch validates batch rendering parameters
func validateBatch(config *BatchConfig) error {
	if config.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}

	if config.Concurrency > 64 {
		return fmt.Errorf("concurrency must not exceed 64")
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// validateNetwork validates network configuration parameters
func validateNetwork(config *NetworkConfig) error {
	if config.ProxyURL != "" {
		if _, err := url.Parse(config.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy_url: %w", err)
		}
	}

	if config.MaxIdleConns < 0 {
		return fmt.Errorf("max_idle_conns must be non-negative")
	}

	if config.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}

	if config.KeepAlive < 0 {
		return fmt.Errorf("keep_alive must be non-negative")
	}

	if config.IdleConnTimeout < 0 {
		return fmt.Errorf("idle_conn_timeout must be non-negative")
	}

	return nil
}

// validateLogging validates logging configuration parameters
func validateLogging(config *LoggingConfig) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	if !contains(validLevels, config.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", config.Level, validLevels)
	}

	validFormats := []string{"console", "json"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", config.Format, validFormats)
	}

	validOutputs := []string{"stdout", "stderr"}
	if !contains(validOutputs, config.Output) {
		return fmt.Errorf("invalid log output: %s, must be one of %v", config.Output, validOutputs)
	}

	return nil
}

// ValidateLocalDirectory checks that the local boundary directory exists on fs
func ValidateLocalDirectory(fs afero.Fs, config *Config) error {
	if config.Local.BasePath == "" {
		return internal.NewError(internal.ErrorCodeConfig, "base_path is required for local source", nil)
	}

	info, err := fs.Stat(config.Local.BasePath)
	if err != nil {
		return internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("cannot access base_path %s", config.Local.BasePath), err)
	}

	if !info.IsDir() {
		return internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("base_path %s is not a directory", config.Local.BasePath), nil)
	}

	return nil
}

// contains checks if a string slice contains a specific string (case-insensitive)
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
