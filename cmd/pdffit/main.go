// Package main provides the CLI entrypoint for pdffit.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diamondjems016/galaxy-analysis/internal/analysis"
	"github.com/diamondjems016/galaxy-analysis/internal/config"
	"github.com/diamondjems016/galaxy-analysis/internal/fit"
	"github.com/diamondjems016/galaxy-analysis/internal/report"
)

const (
	defaultMethod   = string(fit.MethodLeastSquares)
	defaultRegion   = "positive"
	defaultWorkers  = 4
	defaultLogLevel = "info"
)

// fitFlags holds the flag values of the fit command.
type fitFlags struct {
	configPath     string
	pdfPath        string
	exportPath     string
	phase          string
	field          string
	method         string
	region         string
	candidates     []string
	mandatory      []string
	slopeBounds    string
	workers        int
	maxIterations  int
	maxEvaluations int
	restarts       int
	title          string
	top            int
	logLevel       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pdffit",
		Short:         "Fit probability density models to abundance histograms",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newFitCmd())
	rootCmd.AddCommand(newModelsCmd())
	return rootCmd
}

func newFitCmd() *cobra.Command {
	flags := &fitFlags{}
	cmd := &cobra.Command{
		Use:   "fit <archive.csv>",
		Short: "Fit every distribution of an archive and report the best models",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFitCmd(cmd, args[0], flags)
		},
	}

	bindFitFlags(cmd, flags)
	return cmd
}

func bindFitFlags(cmd *cobra.Command, flags *fitFlags) {
	solver := fit.DefaultSolverSettings()
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", config.DefaultConfigPath(), "TOML config file")
	f.StringVar(&flags.pdfPath, "pdf", "", "write a PDF report to this path")
	f.StringVar(&flags.exportPath, "export", "", "write results as JSON (zstd when the path ends in .zst)")
	f.StringVar(&flags.phase, "phase", "", "only fit this phase")
	f.StringVar(&flags.field, "field", "", "only fit this field")
	f.StringVar(&flags.method, "method", defaultMethod, "fit method: least-squares or KS")
	f.StringVar(&flags.region, "region", defaultRegion, "fit region: positive or peak-window")
	f.StringSliceVar(&flags.candidates, "candidates", modelStrings(fit.DefaultCandidates), "candidate models in selection order")
	f.StringSliceVar(&flags.mandatory, "mandatory", modelStrings(fit.DefaultMandatory), "candidates whose failure aborts a distribution")
	f.StringVar(&flags.slopeBounds, "slope-bounds", formatBounds(fit.DefaultSlopeBounds[:]), "lognormal_powerlaw slope bounds as low,high")
	f.IntVar(&flags.workers, "workers", defaultWorkers, "distributions fitted concurrently")
	f.IntVar(&flags.maxIterations, "max-iterations", solver.MaxIterations, "solver iteration limit per model")
	f.IntVar(&flags.maxEvaluations, "max-evaluations", solver.MaxEvaluations, "solver evaluation limit per model")
	f.IntVar(&flags.restarts, "restarts", solver.Restarts, "solver restarts from the previous optimum")
	f.StringVar(&flags.title, "title", "", "PDF report title")
	f.IntVar(&flags.top, "top", report.DefaultTop, "worst fits listed in the PDF report")
	f.StringVar(&flags.logLevel, "log-level", defaultLogLevel, "log level: debug, info, warn or error")
}

func runFitCmd(cmd *cobra.Command, csvPath string, flags *fitFlags) error {
	fileCfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFileConfig(cmd, flags, fileCfg)

	logger, err := newLogger(cmd.ErrOrStderr(), flags.logLevel)
	if err != nil {
		return err
	}
	cfg, err := analysisConfig(flags)
	if err != nil {
		return err
	}

	app := NewApp(logger)
	results, err := app.Run(cmd.Context(), Request{
		CSVPath:    csvPath,
		PDFPath:    flags.pdfPath,
		ExportPath: flags.exportPath,
		Analysis:   cfg,
		Report:     report.Options{Title: flags.title, Top: flags.top},
	})
	if results != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(results))
	}
	return err
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the registered models and the default candidate set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderModels())
			return nil
		},
	}
}

func applyFileConfig(cmd *cobra.Command, flags *fitFlags, fileCfg config.FileConfig) {
	fc := fileCfg.Fit
	applyStringConfig(cmd, "method", &flags.method, fc.Method)
	applyStringConfig(cmd, "region", &flags.region, fc.Region)
	applyStringSliceConfig(cmd, "candidates", &flags.candidates, fc.Candidates)
	applyStringSliceConfig(cmd, "mandatory", &flags.mandatory, fc.Mandatory)
	applyBoundsConfig(cmd, "slope-bounds", &flags.slopeBounds, fc.SlopeBounds)
	applyIntConfig(cmd, "workers", &flags.workers, fc.Workers)
	applyIntConfig(cmd, "max-iterations", &flags.maxIterations, fc.MaxIterations)
	applyIntConfig(cmd, "max-evaluations", &flags.maxEvaluations, fc.MaxEvaluations)
	applyIntConfig(cmd, "restarts", &flags.restarts, fc.Restarts)
	applyStringConfig(cmd, "title", &flags.title, fileCfg.Report.Title)
	applyIntConfig(cmd, "top", &flags.top, fileCfg.Report.Top)
}

func analysisConfig(flags *fitFlags) (analysis.Config, error) {
	cfg := analysis.DefaultConfig()

	method, err := fit.ParseMethod(flags.method)
	if err != nil {
		return cfg, err
	}
	region, err := fit.ParseRegionPolicy(flags.region)
	if err != nil {
		return cfg, err
	}
	candidates, err := parseModelNames(flags.candidates)
	if err != nil {
		return cfg, fmt.Errorf("candidates: %w", err)
	}
	if len(candidates) == 0 {
		return cfg, fmt.Errorf("candidates: at least one model is required")
	}
	mandatory, err := parseModelNames(flags.mandatory)
	if err != nil {
		return cfg, fmt.Errorf("mandatory: %w", err)
	}
	slopeBounds, err := parseBounds(flags.slopeBounds)
	if err != nil {
		return cfg, fmt.Errorf("slope bounds: %w", err)
	}
	if flags.workers < 1 {
		return cfg, fmt.Errorf("workers must be at least 1, got %d", flags.workers)
	}

	cfg.Method = method
	cfg.Region = region
	cfg.Candidates = candidates
	cfg.Mandatory = mandatory
	cfg.SlopeBounds = slopeBounds
	cfg.Workers = flags.workers
	cfg.Solver = fit.SolverSettings{
		MaxIterations:  flags.maxIterations,
		MaxEvaluations: flags.maxEvaluations,
		Restarts:       flags.restarts,
	}
	cfg.Phase = flags.phase
	cfg.Field = flags.field
	return cfg, nil
}

func parseModelNames(names []string) ([]fit.ModelName, error) {
	out := make([]fit.ModelName, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		name := fit.ModelName(n)
		if _, err := fit.Lookup(name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// parseBounds reads "low,high" with low < high.
func parseBounds(s string) ([2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("expected low,high, got %q", s)
	}
	var b [2]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("invalid bound %q: %w", p, err)
		}
		b[i] = v
	}
	if !(b[0] < b[1]) {
		return [2]float64{}, fmt.Errorf("low must be below high, got %q", s)
	}
	return b, nil
}

func formatBounds(b []float64) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func modelStrings(names []fit.ModelName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func applyBoundsConfig(cmd *cobra.Command, name string, target *string, value *[]float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = formatBounds(*value)
}
