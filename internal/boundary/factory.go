// internal/boundary/factory.go - Boundary source factory
package boundary

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/config"
)

// Factory creates appropriate sources based on configuration
type Factory struct {
	config *config.Config
	fs     afero.Fs
}

// NewFactory creates a new source factory reading local files from fs
func NewFactory(cfg *config.Config, fs afero.Fs) *Factory {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Factory{
		config: cfg,
		fs:     fs,
	}
}

// CreateSource creates the source selected by the configuration
func (f *Factory) CreateSource() (Source, error) {
	return f.CreateSourceForType(f.config.DetermineSourceType())
}

// CreateSourceForType creates a source for a specific source type
func (f *Factory) CreateSourceForType(sourceType internal.SourceType) (Source, error) {
	if err := f.ValidateConfiguration(sourceType); err != nil {
		return nil, err
	}

	switch sourceType {
	case internal.SourceTypeHTTP:
		return NewHTTPSource(f.config), nil
	case internal.SourceTypeLocal:
		return NewLocalSource(f.fs, f.config), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}

// ValidateConfiguration validates that the configuration supports the requested source type
func (f *Factory) ValidateConfiguration(sourceType internal.SourceType) error {
	switch sourceType {
	case internal.SourceTypeHTTP:
		if f.config.Boundary.BaseURL == "" {
			return internal.NewError(internal.ErrorCodeConfig, "boundary.base_url is required for HTTP source", nil)
		}
		if f.config.Boundary.URLTemplate == "" {
			return internal.NewError(internal.ErrorCodeConfig, "boundary.url_template is required for HTTP source", nil)
		}
	case internal.SourceTypeLocal:
		if f.config.Local.PathTemplate == "" {
			return internal.NewError(internal.ErrorCodeConfig, "local.path_template is required for local source", nil)
		}
		if err := config.ValidateLocalDirectory(f.fs, f.config); err != nil {
			return fmt.Errorf("local boundary directory validation failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported source type: %s", sourceType)
	}

	return nil
}
