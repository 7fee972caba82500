package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diamondjems016/galaxy-analysis/internal/analysis"
	"github.com/diamondjems016/galaxy-analysis/internal/parser"
	"github.com/diamondjems016/galaxy-analysis/internal/report"
)

// App runs the parse, fit and report pipeline for one archive.
type App struct {
	logger *slog.Logger
}

// NewApp creates a new App that reports progress through logger.
func NewApp(logger *slog.Logger) *App {
	return &App{logger: logger}
}

// Request describes one pipeline run. Empty output paths are skipped.
type Request struct {
	CSVPath    string
	PDFPath    string
	ExportPath string
	Analysis   analysis.Config
	Report     report.Options
}

func (a *App) sendStatus(message string, args ...any) {
	a.logger.Info(message, args...)
}

func (a *App) sendWarning(message string, args ...any) {
	a.logger.Warn(message, args...)
}

// Run parses the archive, fits every selected distribution and writes the
// requested outputs.
func (a *App) Run(ctx context.Context, req Request) (*analysis.AnalysisResults, error) {
	a.sendStatus("parsing", "csv", req.CSVPath)
	parsedData, err := parser.ParseDistributionData(req.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV: %w", err)
	}
	a.sendStatus("parsed", "dataset", parsedData.Dataset, "distributions", len(parsedData.Distributions),
		"phases", len(parsedData.Phases), "fields", len(parsedData.Fields))
	for _, e := range parsedData.ParseErrors {
		a.sendWarning(e)
	}
	if len(parsedData.Distributions) == 0 {
		return nil, fmt.Errorf("no distributions parsed, cannot analyze")
	}

	cfg := req.Analysis
	cfg.Logger = a.logger
	a.sendStatus("analyzing", "method", cfg.Method, "region", cfg.Region.String(), "workers", cfg.Workers)
	analysisResults, err := analysis.AnalyzeDistributions(ctx, parsedData, cfg)
	if err != nil {
		return nil, fmt.Errorf("error analyzing data: %w", err)
	}
	a.sendStatus("analysis complete", "results", len(analysisResults.Results), "fitted", analysisResults.Fitted())
	for _, e := range analysisResults.AnalysisErrors {
		a.sendWarning(e)
	}

	if req.ExportPath != "" {
		a.sendStatus("exporting", "path", req.ExportPath)
		if err := report.ExportResults(req.ExportPath, analysisResults); err != nil {
			return analysisResults, fmt.Errorf("error exporting results: %w", err)
		}
	}

	if req.PDFPath != "" {
		a.sendStatus("generating PDF", "path", req.PDFPath)
		opts := req.Report
		opts.ParseErrors = parsedData.ParseErrors
		if opts.Method == "" {
			opts.Method = string(cfg.Method)
		}
		if opts.Region == "" {
			opts.Region = cfg.Region.String()
		}
		if err := report.BuildPDFReport(req.PDFPath, analysisResults, opts); err != nil {
			return analysisResults, fmt.Errorf("error generating PDF report: %w", err)
		}
		a.sendStatus("PDF report generated", "path", req.PDFPath)
	}
	return analysisResults, nil
}
