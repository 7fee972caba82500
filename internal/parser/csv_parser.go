package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/diamondjems016/galaxy-analysis/internal/histogram"
)

// fieldBlock accumulates the rows of one Field block until the next block starts.
type fieldBlock struct {
	dist      Distribution
	startRow  int
	hasHist   bool
	stats     histogram.SummaryStats
	hasMean   bool
	hasStd    bool
	quantiles int
}

// ParseDistributionData reads a distribution archive from a CSV file.
func ParseDistributionData(filepath string) (*ParsedDistributionData, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ParseDistributionReader(file)
}

// ParseDistributionReader parses the archive format
//
//	Dataset,DD0400
//	Time,400.0
//	Phase,CNM
//	bins,<edges...>
//	Field,O_Fraction
//	hist,<counts...>
//	mean,<v>
//	std,<v>
//	Q1,<v>
//	...
//
// Rows it cannot place are reported in ParseErrors rather than failing the
// whole archive. Only unreadable CSV is an error.
func ParseDistributionReader(r io.Reader) (*ParsedDistributionData, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	parsedData := NewParsedDistributionData()
	seenPhases := make(map[string]bool)
	seenFields := make(map[string]bool)

	var (
		phase   string
		bins    []float64
		current *fieldBlock
	)

	warnf := func(format string, args ...any) {
		parsedData.ParseErrors = append(parsedData.ParseErrors, fmt.Sprintf(format, args...))
	}

	flush := func() {
		if current == nil {
			return
		}
		block := current
		current = nil

		d := block.dist
		if !block.hasHist {
			warnf("Warning: Phase '%s', Field '%s' (CSV row %d) has no hist row. Skipped.", d.Phase, d.Field, block.startRow)
			return
		}
		if d.Bins == nil {
			warnf("Warning: Phase '%s', Field '%s' (CSV row %d) has no bins for its phase. Skipped.", d.Phase, d.Field, block.startRow)
			return
		}
		if len(d.Bins) != len(d.Hist)+1 {
			warnf("Warning: Phase '%s', Field '%s' - %d bin edges for %d counts.", d.Phase, d.Field, len(d.Bins), len(d.Hist))
		}
		switch {
		case block.hasMean && block.hasStd:
			stats := block.stats
			d.Stats = &stats
		case block.hasMean || block.hasStd || block.quantiles > 0:
			warnf("Warning: Phase '%s', Field '%s' - incomplete summary statistics (need mean and std). Ignored.", d.Phase, d.Field)
		}

		parsedData.Distributions = append(parsedData.Distributions, d)
		if !seenPhases[d.Phase] {
			seenPhases[d.Phase] = true
			parsedData.Phases = append(parsedData.Phases, d.Phase)
		}
		if !seenFields[d.Field] {
			seenFields[d.Field] = true
			parsedData.Fields = append(parsedData.Fields, d.Field)
		}
	}

	for rowIdx, row := range allRows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		key := strings.TrimSpace(row[0])
		values := trimValues(row[1:])
		csvRow := rowIdx + 1

		switch key {
		case keyDataset:
			if len(values) == 0 {
				warnf("Warning: Dataset row (CSV row %d) has no value.", csvRow)
				continue
			}
			parsedData.Dataset = values[0]

		case keyTime:
			t, err := parseScalar(values)
			if err != nil {
				warnf("Error converting Time (CSV row %d): %v", csvRow, err)
				continue
			}
			parsedData.Time = t

		case keyPhase:
			flush()
			if len(values) == 0 {
				warnf("Warning: Phase row (CSV row %d) has no name.", csvRow)
				phase = ""
			} else {
				phase = values[0]
			}
			bins = nil

		case keyBins:
			edges, err := parseFloats(values)
			if err != nil {
				warnf("Error converting bins for Phase '%s' (CSV row %d): %v", phase, csvRow, err)
				bins = nil
				continue
			}
			bins = edges
			if current != nil {
				current.dist.Bins = bins
			}

		case keyField:
			flush()
			if len(values) == 0 {
				warnf("Warning: Field row (CSV row %d) has no name. Block ignored.", csvRow)
				continue
			}
			if phase == "" {
				warnf("Warning: Field '%s' (CSV row %d) found before any Phase row.", values[0], csvRow)
			}
			current = &fieldBlock{
				dist: Distribution{
					Dataset: parsedData.Dataset,
					Time:    parsedData.Time,
					Phase:   phase,
					Field:   values[0],
					Bins:    bins,
				},
				startRow: csvRow,
			}

		case keyHist, keyMean, keyStd, keyQ1, keyQ3, keyDecile1, keyDecile9:
			if current == nil {
				warnf("Warning: '%s' row (CSV row %d) found outside a Field block. Ignored.", key, csvRow)
				continue
			}
			if err := current.apply(key, values); err != nil {
				warnf("Error converting '%s' for Phase '%s', Field '%s' (CSV row %d): %v", key, current.dist.Phase, current.dist.Field, csvRow, err)
			}

		default:
			warnf("Warning: Unknown row key '%s' (CSV row %d). Ignored.", key, csvRow)
		}
	}
	flush()

	if len(parsedData.Distributions) == 0 {
		parsedData.ParseErrors = append(parsedData.ParseErrors, "Warning: No distributions parsed.")
	}
	return parsedData, nil
}

func (b *fieldBlock) apply(key string, values []string) error {
	if key == keyHist {
		counts, err := parseFloats(values)
		if err != nil {
			return err
		}
		b.dist.Hist = counts
		b.hasHist = true
		return nil
	}

	switch key {
	case keyMean, keyStd:
		v, err := parseScalar(values)
		if err != nil {
			return err
		}
		if key == keyMean {
			b.stats.Mean, b.hasMean = v, true
		} else {
			b.stats.Std, b.hasStd = v, true
		}
		return nil
	}

	v, err := parseOptional(values)
	if err != nil {
		return err
	}
	switch key {
	case keyQ1:
		b.stats.Q1 = v
	case keyQ3:
		b.stats.Q3 = v
	case keyDecile1:
		b.stats.Decile1 = v
	case keyDecile9:
		b.stats.Decile9 = v
	}
	b.quantiles++
	return nil
}

// trimValues drops the empty trailing cells spreadsheets tend to append.
func trimValues(cells []string) []string {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			values = append(values, c)
		}
	}
	return values
}

func parseFloats(values []string) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no numeric values")
	}
	out := make([]float64, len(values))
	for i, s := range values {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseScalar(values []string) (float64, error) {
	if len(values) != 1 {
		return 0, fmt.Errorf("expected one value, found %d", len(values))
	}
	v, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", values[0])
	}
	return v, nil
}

// parseOptional treats an empty cell or None as a missing quantile.
func parseOptional(values []string) (*float64, error) {
	if len(values) == 0 || (len(values) == 1 && values[0] == missingText) {
		return nil, nil
	}
	v, err := parseScalar(values)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
