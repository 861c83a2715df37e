// internal/staticmap/types.go - Static map request types
package staticmap

import (
	"errors"
	"fmt"
)

// MaxURLLength is the longest request URL the rendering backend accepts
const MaxURLLength = 8192

// MaxDimension is the largest width or height the rendering backend draws
const MaxDimension = 1280

// Default values for the Mapbox-compatible static images endpoint
const (
	DefaultBaseURL  = "https://api.mapbox.com"
	DefaultUsername = "mapbox"
	DefaultStyleID  = "light-v11"
	DefaultPadding  = 20
)

// Config holds everything the builders need to address the rendering backend
type Config struct {
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	StyleID     string `mapstructure:"style_id"`
	AccessToken string `mapstructure:"access_token"`
	Padding     int    `mapstructure:"padding"`
}

// Size is the requested image size in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ConfigurationError reports a missing or unusable deployment setting
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("static map configuration: %s: %s", e.Field, e.Message)
}

// ErrMissingAccessToken is returned by every builder when no access token is configured
var ErrMissingAccessToken = &ConfigurationError{Field: "access_token", Message: "no access token configured"}

// ErrNoRings is returned when a path overlay is requested without any ring
var ErrNoRings = errors.New("path overlay needs at least one ring")

// ErrInvalidSize is returned for non-positive image dimensions
var ErrInvalidSize = errors.New("image width and height must be positive")

// NewSize creates a new image size
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// Validate ensures both dimensions are positive
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSize, s.Width, s.Height)
	}
	return nil
}

// String returns the WIDTHxHEIGHT form used in request paths
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
