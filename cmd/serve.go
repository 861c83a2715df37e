// cmd/serve.go - HTTP API command
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/boundary_staticmap/internal/config"
	"github.com/valpere/boundary_staticmap/internal/metrics"
	"github.com/valpere/boundary_staticmap/internal/server"
	"github.com/valpere/boundary_staticmap/internal/service"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered boundary maps over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  GET  /v1/maps/{area_type}/{code}.png   rendered map image
  GET  /v1/maps/{area_type}/{code}/plan  accepted plan, token masked (?decode=true)
  POST /v1/maps/render                   render a GeoJSON request body (?area_type=)
  GET  /v1/styles                        effective styles
  GET  /healthz                          liveness
  GET  /metrics                          Prometheus metrics

Image endpoints accept ?width= and ?height=. Rendered images are cached in
memory or in Redis depending on cache.driver.

Examples:
  # Serve local boundaries on port 9090
  boundary-staticmap serve --base-path ./boundaries --addr :9090

  # Serve with a Redis cache and reload styles when the config file changes
  STATICMAP_CACHE_DRIVER=redis boundary-staticmap serve --config config.yaml --watch-config`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("cache", "memory", "image cache driver (none, memory, redis)")
	serveCmd.Flags().Bool("watch-config", false, "reload styles when the config file changes")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("cache.driver", serveCmd.Flags().Lookup("cache"))
	viper.BindPFlag("server.watch_config", serveCmd.Flags().Lookup("watch-config"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg, "server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := metrics.Init(metrics.BuildInfo{Version: Version, Revision: Revision})

	p, err := buildPipeline(ctx, cfg, false, provider, log)
	if err != nil {
		return err
	}
	defer p.Close()

	if p.source == nil {
		log.Warn().Msg("no boundary source configured, only POST /v1/maps/render is available")
	}

	if cfg.Server.WatchConfig {
		watchStyles(p.renderer, log)
	}

	srv := server.New(cfg.Server, p.renderer, cfg.DefaultSize(),
		server.WithMetricsHandler(provider.Handler()),
		server.WithLogger(log),
	)

	log.Info().
		Str("source", string(cfg.DetermineSourceType())).
		Str("cache", cfg.Cache.Driver).
		Str("version", Version).
		Msg("starting server")

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// watchStyles reloads the style table whenever the config file changes.
// Other settings take effect on restart.
func watchStyles(renderer *service.Renderer, log *zerolog.Logger) {
	if viper.ConfigFileUsed() == "" {
		log.Warn().Msg("watch-config set but no config file in use")
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("config reload rejected")
			return
		}
		if err := renderer.SetStyles(cfg.Styles); err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("styles reload rejected")
			return
		}
		log.Info().Str("file", e.Name).Msg("styles reloaded")
	})
	viper.WatchConfig()
}
