// cmd/batch.go - Batch rendering command
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/batch"
	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/output"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render the static map images of many boundaries",
	Long: `Render PNG map images for many areas of one area type.

Areas are given as a comma-separated list of codes, a file with one code
per line, or with --all every area found under the local base path. Each
image is written to {output-dir}/{area_type}/{code}.png. Failed areas are
reported at the end and do not stop the run unless --fail-on-error is set.

Examples:
  # Render three regencies from the area API
  boundary-staticmap batch --base-url "https://areas.example.com/v1" --area-type regency --codes 3171,3172,3173

  # Render every local province with eight workers
  boundary-staticmap batch --base-path ./boundaries --area-type province --all --concurrency 8 --output-dir ./maps

  # Render codes from a file, keeping images rendered by an earlier run
  boundary-staticmap batch --area-type district --codes-file districts.txt --skip-existing

  # Print the summary as JSON
  boundary-staticmap batch --area-type regency --codes 3171,3172 --summary json`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addSizeFlags(batchCmd)

	// Area selection flags
	batchCmd.Flags().String("area-type", string(internal.AreaProvince), "area type (province, regency, district, village)")
	batchCmd.Flags().String("codes", "", "comma-separated area codes")
	batchCmd.Flags().String("codes-file", "", "file with one area code per line, '-' for stdin")
	batchCmd.Flags().Bool("all", false, "render every area found under the local base path")
	batchCmd.MarkFlagsMutuallyExclusive("codes", "codes-file", "all")
	batchCmd.MarkFlagsOneRequired("codes", "codes-file", "all")

	// Output flags
	batchCmd.Flags().String("output-dir", "", "output directory for images (default from batch.output_dir)")
	batchCmd.Flags().Bool("skip-existing", false, "skip areas whose image already exists")
	batchCmd.Flags().String("summary", "text", "summary format (text, json)")

	// Processing flags
	batchCmd.Flags().Int("concurrency", 0, "number of areas rendered at once (default from batch.concurrency)")
	batchCmd.Flags().Duration("timeout", 0, "overall batch timeout (default from batch.timeout)")
	batchCmd.Flags().Bool("fail-on-error", false, "stop processing on first error")

	// Progress flags
	batchCmd.Flags().Bool("progress", true, "show progress indicator")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg, "batch")

	areaTypeName, _ := cmd.Flags().GetString("area-type")
	codesStr, _ := cmd.Flags().GetString("codes")
	codesFile, _ := cmd.Flags().GetString("codes-file")
	all, _ := cmd.Flags().GetBool("all")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	summaryFormat, _ := cmd.Flags().GetString("summary")
	showProgress, _ := cmd.Flags().GetBool("progress")

	if summaryFormat != "text" && summaryFormat != "json" {
		return fmt.Errorf("invalid summary format: %s (must be 'text' or 'json')", summaryFormat)
	}

	// Flags override the batch section of the configuration
	if cmd.Flags().Changed("output-dir") {
		cfg.Batch.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Batch.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Batch.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("fail-on-error") {
		cfg.Batch.FailOnError, _ = cmd.Flags().GetBool("fail-on-error")
	}

	areaType, err := internal.ParseAreaType(areaTypeName)
	if err != nil {
		return err
	}
	size, err := sizeFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := buildPipeline(ctx, cfg, true, nil, log)
	if err != nil {
		return err
	}
	defer p.Close()

	// Collect area codes
	var codes []string
	switch {
	case all:
		local, ok := p.source.(*boundary.LocalSource)
		if !ok {
			return fmt.Errorf("--all requires a local boundary source (set --base-path)")
		}
		codes, err = local.List(areaType)
	case codesFile != "":
		codes, err = readCodesFile(codesFile)
	default:
		codes = splitCodes(codesStr)
	}
	if err != nil {
		return fmt.Errorf("failed to collect area codes: %w", err)
	}
	if len(codes) == 0 {
		return fmt.Errorf("no areas to render")
	}

	requests := make([]boundary.Request, 0, len(codes))
	for _, code := range codes {
		req, err := boundary.NewRequest(areaType.String(), code)
		if err != nil {
			return err
		}
		requests = append(requests, req)
	}

	items := batch.NewItems(requests, func(r boundary.Request) string {
		return cfg.OutputPath(r.AreaType, r.Code)
	})

	log.Info().
		Int("areas", len(items)).
		Str("area_type", areaType.String()).
		Str("source", string(cfg.DetermineSourceType())).
		Str("output_dir", cfg.Batch.OutputDir).
		Msg("starting batch")

	opts := batch.Options{
		Concurrency:  cfg.Batch.Concurrency,
		Timeout:      cfg.Batch.Timeout,
		FailOnError:  cfg.Batch.FailOnError,
		SkipExisting: skipExisting,
		Size:         size,
	}
	var reporter *consoleProgressReporter
	if showProgress {
		reporter = newConsoleProgressReporter(os.Stderr)
		opts.OnProgress = reporter.ReportProgress
	}

	writer := output.NewImageWriter(afero.NewOsFs(), nil)
	summary, runErr := batch.NewProcessor(p.renderer, writer, log).Run(ctx, items, opts)
	if summary == nil {
		return runErr
	}
	if reporter != nil {
		reporter.ReportComplete(summary)
	}

	if err := printSummary(os.Stdout, summary, summaryFormat); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("batch finished with %d failed areas: %w", summary.Failed, runErr)
	}
	return nil
}

// splitCodes splits a comma-separated code list, dropping empty entries
func splitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}

// readCodesFile reads one code per line; blank lines and '#' comments are ignored
func readCodesFile(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var codes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	return codes, scanner.Err()
}

// printSummary writes the batch summary as JSON or as a table of failures
func printSummary(w io.Writer, summary *batch.Summary, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total:\t%d\n", summary.Total)
	fmt.Fprintf(tw, "succeeded:\t%d\n", summary.Succeeded)
	fmt.Fprintf(tw, "failed:\t%d\n", summary.Failed)
	fmt.Fprintf(tw, "skipped:\t%d\n", summary.Skipped)
	fmt.Fprintf(tw, "duration:\t%s\n", summary.Duration.Round(time.Millisecond))

	stages := make([]string, 0, len(summary.Stages))
	for stage := range summary.Stages {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(tw, "stage %s:\t%d\n", stage, summary.Stages[stage])
	}

	for _, res := range summary.Results {
		if res.Error != "" {
			fmt.Fprintf(tw, "FAILED %s:\t%s\n", res.Item.Request, res.Error)
		}
	}
	return tw.Flush()
}

// consoleProgressReporter prints progress to the console at most once per second
type consoleProgressReporter struct {
	mu         sync.Mutex
	out        io.Writer
	lastUpdate time.Time
}

func newConsoleProgressReporter(out io.Writer) *consoleProgressReporter {
	return &consoleProgressReporter{out: out}
}

// ReportProgress reports batch progress to the console
func (r *consoleProgressReporter) ReportProgress(p batch.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastUpdate) < time.Second {
		return // Rate limit updates
	}

	eta := time.Until(p.EstimateCompletion()).Round(time.Second)
	fmt.Fprintf(r.out, "\rProgress: %.1f%% (%d/%d areas, %.2f areas/sec, ETA %s)",
		p.CalculateProgress(), p.Processed, p.Total, p.Throughput(), eta)
	r.lastUpdate = time.Now()
}

// ReportComplete reports batch completion
func (r *consoleProgressReporter) ReportComplete(summary *batch.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\rCompleted: %.1f%% (%d areas processed, %d failed)\n",
		summary.CalculateProgress(), summary.Processed, summary.Failed)
}
