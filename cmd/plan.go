// cmd/plan.go - Plan inspection command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/valpere/boundary_staticmap/internal/mapgen"
	"github.com/valpere/boundary_staticmap/internal/output"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the static map URL chosen for a boundary without fetching it",
	Long: `Run the staged simplification for one boundary and print the accepted plan:
the stage that produced a URL within the length limit, every attempt made
on the way, and optionally the rings the URL actually draws.

The access token is masked unless --show-token is given.

Examples:
  # Inspect a province from local files
  boundary-staticmap plan --base-path ./boundaries --area-type province --code 31 --format text

  # Export the drawn rings of a GeoJSON file for review in a GIS tool
  boundary-staticmap plan --file ./maluku.geojson --format geojson -o maluku-rings.geojson

  # Print the full URL, including the access token
  boundary-staticmap plan --area-type regency --code 3171 --show-token`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addTargetFlags(planCmd)
	addSizeFlags(planCmd)

	planCmd.Flags().StringP("format", "f", "json", "output format (json, text, geojson)")
	planCmd.Flags().Bool("pretty", true, "pretty print JSON output")
	planCmd.Flags().Bool("decode", false, "decode the rings drawn by the accepted URL")
	planCmd.Flags().Bool("show-token", false, "print the access token unmasked")
	planCmd.Flags().StringP("output", "o", "-", "output file, '-' for stdout")
	planCmd.Flags().Duration("timeout", 30*time.Second, "boundary lookup timeout")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg, "plan")

	formatName, _ := cmd.Flags().GetString("format")
	pretty, _ := cmd.Flags().GetBool("pretty")
	decode, _ := cmd.Flags().GetBool("decode")
	showToken, _ := cmd.Flags().GetBool("show-token")
	dest, _ := cmd.Flags().GetString("output")

	format := output.Format(formatName)
	if !format.IsValid() {
		return fmt.Errorf("invalid format: %s (must be 'json', 'text' or 'geojson')", formatName)
	}
	formatter, err := output.NewFormatter(format, pretty)
	if err != nil {
		return err
	}

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

	var plan *mapgen.Plan
	if target.feature != nil {
		plan, err = p.renderer.PlanFeature(target.feature, target.request.AreaType, size)
	} else {
		plan, err = p.renderer.PlanArea(ctx, target.request, size)
	}
	if err != nil {
		return fmt.Errorf("failed to plan %s: %w", target, err)
	}

	view := output.NewPlanView(target.String(), plan, !showToken)
	if decode {
		if err := view.Decode(); err != nil {
			return err
		}
	}

	data, err := formatter.Format(view)
	if err != nil {
		return fmt.Errorf("failed to format plan: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return output.NewImageWriter(afero.NewOsFs(), os.Stdout).Write(dest, data)
}
