package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/diamondjems016/galaxy-analysis/internal/analysis"
	"github.com/diamondjems016/galaxy-analysis/internal/fit"
)

// compressedSuffix selects zstd compression for exports.
const compressedSuffix = ".zst"

// NullFloat encodes NaN and infinities as JSON null.
type NullFloat float64

func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*f = NullFloat(v)
	return nil
}

// ExportFile is the document written by ExportResults.
type ExportFile struct {
	Dataset  string         `json:"dataset"`
	Time     float64        `json:"time"`
	Results  []ExportResult `json:"results"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ExportResult is one distribution of an export.
type ExportResult struct {
	Phase        string            `json:"phase"`
	Field        string            `json:"field"`
	Fingerprint  string            `json:"fingerprint"`
	NumBins      int               `json:"num_bins"`
	Best         *ExportFit        `json:"best,omitempty"`
	Candidates   []ExportCandidate `json:"candidates,omitempty"`
	Median       NullFloat         `json:"median_log10"`
	IQR          NullFloat         `json:"iqr_log10"`
	Q90Q10Range  NullFloat         `json:"q90_q10_log10"`
	ReducedError NullFloat         `json:"reduced_error"`
	Error        string            `json:"error,omitempty"`
}

// ExportFit is the selected model. Curve is enough to evaluate it again.
type ExportFit struct {
	Curve         fit.Curve   `json:"curve"`
	Error         NullFloat   `json:"error"`
	Uncertainties []NullFloat `json:"uncertainties"`
	ImpliedNorm   NullFloat   `json:"implied_norm"`
	Method        fit.Method  `json:"method"`
	PositiveBins  int         `json:"positive_bins"`
}

// ExportCandidate is one attempted model.
type ExportCandidate struct {
	Model   fit.ModelName `json:"model"`
	Params  []float64     `json:"params,omitempty"`
	Error   NullFloat     `json:"error"`
	Failure string        `json:"failure,omitempty"`
}

// NewExportFile converts analysis results into their serialized form.
func NewExportFile(results *analysis.AnalysisResults) ExportFile {
	out := ExportFile{
		Dataset:  results.Dataset,
		Time:     results.Time,
		Results:  make([]ExportResult, 0, len(results.Results)),
		Warnings: results.AnalysisErrors,
	}
	for _, res := range results.Results {
		er := ExportResult{
			Phase:        res.Phase,
			Field:        res.Field,
			Fingerprint:  fmt.Sprintf("%016x", res.Fingerprint),
			NumBins:      res.NumBins,
			Median:       NullFloat(res.Metrics.Median),
			IQR:          NullFloat(res.Metrics.IQR),
			Q90Q10Range:  NullFloat(res.Metrics.Q90Q10Range),
			ReducedError: NullFloat(res.ReducedError),
			Error:        res.Error,
		}
		if res.Best != nil {
			unc := res.Best.Uncertainties()
			ef := &ExportFit{
				Curve:         res.Best.Curve,
				Error:         NullFloat(res.Best.Error),
				Uncertainties: make([]NullFloat, len(unc)),
				ImpliedNorm:   NullFloat(res.Best.ImpliedNorm),
				Method:        res.Best.Method,
				PositiveBins:  res.Best.PositiveBins,
			}
			for i, u := range unc {
				ef.Uncertainties[i] = NullFloat(u)
			}
			er.Best = ef
		}
		for _, c := range res.Candidates {
			er.Candidates = append(er.Candidates, ExportCandidate{
				Model:   c.Model,
				Params:  c.Params,
				Error:   NullFloat(c.Error),
				Failure: c.Failure,
			})
		}
		out.Results = append(out.Results, er)
	}
	return out
}

// ExportResults writes the results as indented JSON, zstd-compressed when
// path ends in .zst.
func ExportResults(path string, results *analysis.AnalysisResults) error {
	if results == nil {
		return fmt.Errorf("no analysis results to export")
	}
	data, err := json.MarshalIndent(NewExportFile(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	data = append(data, '\n')

	if strings.HasSuffix(path, compressedSuffix) {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		data = encoder.EncodeAll(data, nil)
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to close zstd encoder: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ReadExport loads a file written by ExportResults.
func ReadExport(path string) (ExportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExportFile{}, fmt.Errorf("failed to read export: %w", err)
	}

	if strings.HasSuffix(path, compressedSuffix) {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return ExportFile{}, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		data, err = decoder.DecodeAll(data, nil)
		if err != nil {
			return ExportFile{}, fmt.Errorf("zstd decompression failed: %w", err)
		}
	}

	var out ExportFile
	if err := json.Unmarshal(data, &out); err != nil {
		return ExportFile{}, fmt.Errorf("failed to decode export: %w", err)
	}
	return out, nil
}
