package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/diamondjems016/galaxy-analysis/internal/analysis"
	"github.com/diamondjems016/galaxy-analysis/internal/fit"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// renderSummary draws one row per distribution with its best model.
func renderSummary(results *analysis.AnalysisResults) string {
	if results == nil || len(results.Results) == 0 {
		return footerStyle.Render("no distributions analyzed")
	}

	rows := make([][]string, 0, len(results.Results))
	failed := make([]bool, 0, len(results.Results))
	for _, res := range results.Results {
		model, score := "none", "-"
		if res.Best != nil {
			model = string(res.Best.Name)
			score = formatFloat(res.Best.Error)
		}
		rows = append(rows, []string{
			res.Phase,
			res.Field,
			model,
			score,
			formatFloat(res.ReducedError),
			formatFloat(res.Metrics.Median),
		})
		failed = append(failed, res.Best == nil)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))).
		Headers("PHASE", "FIELD", "MODEL", "ERROR", "ERROR/BIN", "MEDIAN").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(failed) && failed[row] && col == 2:
				return errorStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	title := "Fit summary"
	if results.Dataset != "" {
		title = fmt.Sprintf("Fit summary: %s", results.Dataset)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("%d of %d distributions fitted, %d warnings",
		results.Fitted(), len(results.Results), len(results.AnalysisErrors))))
	return b.String()
}

// renderModels lists the registered models and marks the default candidates.
func renderModels() string {
	defaults := make(map[fit.ModelName]bool)
	for _, n := range fit.DefaultCandidates {
		defaults[n] = true
	}
	mandatory := make(map[fit.ModelName]bool)
	for _, n := range fit.DefaultMandatory {
		mandatory[n] = true
	}

	var rows [][]string
	for _, name := range fit.Names() {
		m, err := fit.Lookup(name)
		if err != nil {
			continue
		}
		role := ""
		switch {
		case mandatory[name]:
			role = "default, mandatory"
		case defaults[name]:
			role = "default"
		}
		rows = append(rows, []string{string(name), strconv.Itoa(m.NumParams()), role})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))).
		Headers("MODEL", "PARAMS", "CANDIDATE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
