// cmd/render.go - Single map rendering command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/config"
	"github.com/valpere/boundary_staticmap/internal/output"
	"github.com/valpere/boundary_staticmap/internal/service"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the static map image of one boundary",
	Long: `Render a PNG map image of a single administrative boundary.

The boundary is read from the configured source (area API or local files)
by area type and code, or from a GeoJSON file given with --file. The
geometry is simplified in stages until the request URL fits the limit.

Examples:
  # Render a regency from the area API
  boundary-staticmap render --base-url "https://areas.example.com/v1" --area-type regency --code 3171 -o jakarta.png

  # Render a province from local files into the batch output directory
  boundary-staticmap render --base-path ./boundaries --area-type province --code 51

  # Render a GeoJSON file to stdout at a custom size
  boundary-staticmap render --file ./bali.geojson --width 800 --height 600 > bali.png`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addTargetFlags(renderCmd)
	addSizeFlags(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "output file, '-' for stdout (default: batch output directory, or stdout with --file)")
	renderCmd.Flags().Duration("timeout", 60*time.Second, "overall render timeout")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg, "render")

	target, err := parseTarget(cmd)
	if err != nil {
		return err
	}
	size, err := sizeFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := buildPipeline(ctx, cfg, target.file == "", nil, log)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := target.render(ctx, p.renderer, size)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", target, err)
	}

	dest, _ := cmd.Flags().GetString("output")
	if dest == "" {
		dest = target.defaultOutput(cfg)
	}

	writer := output.NewImageWriter(afero.NewOsFs(), os.Stdout)
	if err := writer.Write(dest, res.Image); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	log.Info().
		Str("area", target.String()).
		Str("stage", res.Plan.Stage.String()).
		Int("url_length", res.Plan.URLLength()).
		Int("bytes", len(res.Image)).
		Str("output", dest).
		Msg("map rendered")
	return nil
}

// target is the boundary a render or plan command works on
type target struct {
	request boundary.Request
	file    string
	feature *geojson.Feature
}

// addTargetFlags registers the flags that select a boundary
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("area-type", string(internal.AreaProvince), "area type (province, regency, district, village)")
	cmd.Flags().String("code", "", "administrative area code")
	cmd.Flags().String("file", "", "GeoJSON file to render instead of a source lookup")
	cmd.MarkFlagsMutuallyExclusive("code", "file")
	cmd.MarkFlagsOneRequired("code", "file")
}

// parseTarget reads the area flags, loading the GeoJSON file if one is given
func parseTarget(cmd *cobra.Command) (*target, error) {
	areaType, _ := cmd.Flags().GetString("area-type")
	code, _ := cmd.Flags().GetString("code")
	file, _ := cmd.Flags().GetString("file")

	if file == "" {
		req, err := boundary.NewRequest(areaType, code)
		if err != nil {
			return nil, err
		}
		return &target{request: req}, nil
	}

	at, err := internal.ParseAreaType(areaType)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	f, err := boundary.DecodeFeature(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file, err)
	}

	return &target{request: boundary.Request{AreaType: at}, file: file, feature: f}, nil
}

func (t *target) String() string {
	if t.file != "" {
		return t.file
	}
	return t.request.String()
}

func (t *target) render(ctx context.Context, r *service.Renderer, size staticmap.Size) (*service.Result, error) {
	if t.feature != nil {
		return r.RenderFeature(ctx, t.feature, t.request.AreaType, size)
	}
	return r.RenderArea(ctx, t.request, size)
}

func (t *target) defaultOutput(cfg *config.Config) string {
	if t.file != "" {
		return "-"
	}
	return cfg.OutputPath(t.request.AreaType, t.request.Code)
}
