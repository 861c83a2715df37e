// internal/boundary/local_source.go - Local file boundary source
package boundary

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/afero"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/config"
)

// LocalSource implements the Source interface for GeoJSON files on disk
type LocalSource struct {
	fs     afero.Fs
	config *config.LocalConfig
}

// NewLocalSource creates a new local file source over fs
func NewLocalSource(fs afero.Fs, cfg *config.Config) *LocalSource {
	return &LocalSource{
		fs:     fs,
		config: &cfg.Local,
	}
}

// Fetch reads the boundary of one area from the file system
func (s *LocalSource) Fetch(ctx context.Context, request Request) (*geojson.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.FilePath(request)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeValidation, "failed to build file path", err)
	}

	// Check if file exists
	fileInfo, err := s.fs.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal.NewError(internal.ErrorCodeNotFound, fmt.Sprintf("boundary file not found: %s", filePath), err)
		}
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("cannot access boundary file: %s", filePath), err)
	}

	// Check if it's a regular file
	if !fileInfo.Mode().IsRegular() {
		return nil, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("path is not a regular file: %s", filePath), nil)
	}

	file, err := s.fs.Open(filePath)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("failed to open boundary file: %s", filePath), err)
	}
	defer file.Close()

	// Handle compressed files
	var reader io.Reader = file
	if isCompressedFile(filePath) {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, internal.NewError(internal.ErrorCodeProcessing, fmt.Sprintf("failed to create gzip reader for: %s", filePath), err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("failed to read boundary file: %s", filePath), err)
	}

	f, err := DecodeFeature(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return f, nil
}

// FilePath builds the file path of a request from the path template
func (s *LocalSource) FilePath(request Request) (string, error) {
	if s.config.BasePath == "" {
		return "", fmt.Errorf("base_path is required for local boundaries")
	}

	// Codes become file names, so path separators are never allowed
	if strings.ContainsAny(request.Code, `/\`) || strings.Contains(request.Code, "..") {
		return "", fmt.Errorf("invalid area code %q", request.Code)
	}

	extension := s.config.Extension
	if s.config.Compressed {
		extension += ".gz"
	}

	path := request.expand(s.config.PathTemplate,
		"{base_path}", s.config.BasePath,
		"{extension}", extension,
	)
	return filepath.Clean(path), nil
}

// List returns the codes available for an area type, sorted
func (s *LocalSource) List(areaType internal.AreaType) ([]string, error) {
	dir := filepath.Join(s.config.BasePath, areaType.String())

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal.NewError(internal.ErrorCodeNotFound, fmt.Sprintf("no boundaries for %s", areaType), err)
		}
		return nil, internal.NewError(internal.ErrorCodeFileSystem, fmt.Sprintf("failed to scan %s", dir), err)
	}

	var codes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".gz")
		if ext := filepath.Ext(name); ext != "" && ext == s.config.Extension {
			codes = append(codes, strings.TrimSuffix(name, ext))
		}
	}

	sort.Strings(codes)
	return codes, nil
}

// isCompressedFile determines if a file is compressed based on its extension
func isCompressedFile(filePath string) bool {
	return strings.HasSuffix(strings.ToLower(filePath), ".gz")
}
