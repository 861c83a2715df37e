// cmd/root.go - Root command implementation
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/config"
	"github.com/valpere/boundary_staticmap/internal/imagecache"
	"github.com/valpere/boundary_staticmap/internal/logger"
	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/metrics"
	"github.com/valpere/boundary_staticmap/internal/render"
	"github.com/valpere/boundary_staticmap/internal/service"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

// Version and Revision are set at build time with -ldflags
var (
	Version  = "dev"
	Revision = ""
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boundary-staticmap",
	Short: "Render static map images of administrative boundaries",
	Long: `boundary-staticmap renders PNG map images of Indonesian administrative
boundaries (provinces, regencies, districts and villages) through a static
map image API. Boundary geometry is simplified step by step until the
generated request URL fits within the provider's URL length limit.

Boundary Sources:
- Area API over HTTP/HTTPS
- Local GeoJSON files and directories
- Automatic source type detection

Features:
- Six-stage adaptive simplification with island filtering
- Per-area-type styles, overridable from configuration
- Batch rendering with bounded concurrency
- HTTP API with an in-memory or Redis image cache
- Prometheus metrics

Examples:
  # Render one regency from the area API
  boundary-staticmap render --base-url "https://areas.example.com/v1" --area-type regency --code 3171 -o jakarta.png

  # Render a local GeoJSON file
  boundary-staticmap render --file ./bali.geojson --area-type province -o bali.png

  # Show how a province would be encoded without fetching the image
  boundary-staticmap plan --base-path ./boundaries --area-type province --code 31 --format text

  # Render every local regency file
  boundary-staticmap batch --base-path ./boundaries --area-type regency --all --output-dir ./maps

  # Serve the HTTP API
  boundary-staticmap serve --config config.yaml`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.boundary-staticmap.yaml)")

	// Source configuration flags
	rootCmd.PersistentFlags().String("source-type", "auto", "boundary source type (auto, http, local)")
	rootCmd.PersistentFlags().String("base-url", "", "base URL of the area API (HTTP source)")
	rootCmd.PersistentFlags().String("base-path", "", "base path of local GeoJSON files (local source)")
	rootCmd.PersistentFlags().String("api-key", "", "API key for the area API (HTTP source)")

	// Rendering backend flags
	rootCmd.PersistentFlags().String("access-token", "", "static map API access token")
	rootCmd.PersistentFlags().String("style-id", "", "static map style ID")

	// Logging flags
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	viper.BindPFlag("source.type", rootCmd.PersistentFlags().Lookup("source-type"))
	viper.BindPFlag("boundary.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("local.base_path", rootCmd.PersistentFlags().Lookup("base-path"))
	viper.BindPFlag("boundary.api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("mapbox.access_token", rootCmd.PersistentFlags().Lookup("access-token"))
	viper.BindPFlag("mapbox.style_id", rootCmd.PersistentFlags().Lookup("style-id"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// A missing .env file is normal outside development
	_ = godotenv.Load(".env")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".boundary-staticmap" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".boundary-staticmap")
	}

	// Environment variables, e.g. STATICMAP_MAPBOX_ACCESS_TOKEN
	viper.SetEnvPrefix("STATICMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("logging.verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig loads and validates the configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildLogger creates the root logger from the logging section
func buildLogger(cfg *config.Config, component string) *zerolog.Logger {
	level := cfg.Logging.Level
	if cfg.Logging.Verbose && !strings.EqualFold(level, "trace") {
		level = "debug"
	}

	l := logger.Build(logger.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Component: component,
	}, logger.Output(cfg.Logging.Output))
	return &l
}

// pipeline holds the components every rendering command shares
type pipeline struct {
	renderer *service.Renderer
	source   boundary.Source
	cache    imagecache.Cache
}

func (p *pipeline) Close() error {
	return p.cache.Close()
}

// buildPipeline wires the boundary source, generator and cache into a renderer.
// Without needSource a missing source configuration is tolerated, which lets
// commands render inline GeoJSON files.
func buildPipeline(ctx context.Context, cfg *config.Config, needSource bool, provider *metrics.Provider, log *zerolog.Logger) (*pipeline, error) {
	source, err := boundary.NewFactory(cfg, afero.NewOsFs()).CreateSource()
	if err != nil {
		if needSource {
			return nil, fmt.Errorf("failed to create boundary source: %w", err)
		}
		log.Debug().Err(err).Msg("no boundary source configured")
	}

	var pipelineMetrics *metrics.Pipeline
	if provider != nil {
		pipelineMetrics = provider.Pipeline
	}

	fetcher := render.NewHTTPFetcher(cfg).WithMetrics(pipelineMetrics)
	generator := mapgen.New(
		staticmap.NewBuilder(cfg.StaticMap()),
		fetcher,
		mapgen.WithLogger(log),
		mapgen.WithMetrics(pipelineMetrics),
	)

	cache, err := imagecache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	renderer, err := service.New(source, generator, cfg.Styles,
		service.WithCache(cache),
		service.WithMetrics(pipelineMetrics),
		service.WithLogger(log),
	)
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &pipeline{renderer: renderer, source: source, cache: cache}, nil
}

// sizeFromFlags overrides the configured default size with --width and --height
func sizeFromFlags(cmd *cobra.Command, cfg *config.Config) (staticmap.Size, error) {
	size := cfg.DefaultSize()
	if cmd.Flags().Changed("width") {
		size.Width, _ = cmd.Flags().GetInt("width")
	}
	if cmd.Flags().Changed("height") {
		size.Height, _ = cmd.Flags().GetInt("height")
	}
	if err := size.Validate(); err != nil {
		return size, err
	}
	if size.Width > staticmap.MaxDimension || size.Height > staticmap.MaxDimension {
		return size, fmt.Errorf("image size %s exceeds %dpx", size, staticmap.MaxDimension)
	}
	return size, nil
}

// addSizeFlags registers --width and --height on a command
func addSizeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("width", 0, "image width in pixels (default from render.width)")
	cmd.Flags().Int("height", 0, "image height in pixels (default from render.height)")
}
