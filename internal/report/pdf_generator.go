package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/diamondjems016/galaxy-analysis/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// DefaultTop is the number of worst fits listed when Options.Top is unset.
const DefaultTop = 10

// Options controls the content of the PDF report.
type Options struct {
	Title       string
	Top         int    // rows in the worst-fit ranking
	Method      string // fit method the results were produced with
	Region      string // region policy the results were produced with
	ParseErrors []string
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func() // map of style name to function that sets font, color etc.
	lineHeight  float64
	currentY    float64 // To manually track Y position for flowing content
	pageHeight  float64
	contentTopY float64 // Top Y after margin
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin, // bottom of the usable area
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["small"] = func() {
		s.pdf.SetFont("Arial", "", 8)
		s.pdf.SetTextColor(90, 90, 90)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200) // Light grey
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 8)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() { // distributions without a fit
		s.pdf.SetFont("Arial", "B", 8)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1 // Small gap after paragraph
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

// drawTable draws a bordered table whose column widths are fractions of the
// content width. The header is repeated after a page break. cellStyle may be
// nil.
func (s *pdfStyler) drawTable(headers []string, colWidthsRel []float64, rows [][]string, cellStyle func(row, col int) string) {
	colWidthsAbs := make([]float64, len(colWidthsRel))
	for i, rel := range colWidthsRel {
		colWidthsAbs[i] = rel * pdfContentWidth
	}

	drawHeader := func() {
		sX := pdfMargin
		s.applyStyle("tableHeader")
		for i, header := range headers {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(colWidthsAbs[i], s.lineHeight, header, "1", 0, "C", true, 0, "")
			sX += colWidthsAbs[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	drawHeader()

	for r, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			drawHeader()
		}
		sX := pdfMargin
		for c, cellData := range row {
			style := "tableCell"
			if cellStyle != nil {
				style = cellStyle(r, c)
			}
			s.applyStyle(style)
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(colWidthsAbs[c], s.lineHeight, cellData, "1", 0, "C", false, 0, "")
			sX += colWidthsAbs[c]
		}
		s.currentY += s.lineHeight
	}
}

// BuildPDFReport creates the fit summary report.
func BuildPDFReport(filepath string, analysisResults *analysis.AnalysisResults, opts Options) error {
	pdf := gofpdf.New("L", "mm", "Letter", "") // Landscape, mm, Letter size
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	writeReport(styler, analysisResults, opts)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return pdf.OutputFileAndClose(filepath)
}

func writeReport(styler *pdfStyler, analysisResults *analysis.AnalysisResults, opts Options) {
	title := opts.Title
	if title == "" {
		title = "Distribution Fit Report"
		if analysisResults != nil && analysisResults.Dataset != "" {
			title = fmt.Sprintf("Distribution Fit Report: %s", analysisResults.Dataset)
		}
	}
	styler.writeParagraph(title, "h1", "C")
	styler.addSpacer(5)

	if analysisResults == nil || len(analysisResults.Results) == 0 {
		styler.writeParagraph("No analysis results to display.", "normal", "L")
		writeWarnings(styler, analysisResults, opts.ParseErrors)
		return
	}

	var settings []string
	if analysisResults.Dataset != "" {
		settings = append(settings, fmt.Sprintf("Dataset: %s (time %s)", analysisResults.Dataset, formatValue(analysisResults.Time)))
	}
	if opts.Method != "" {
		settings = append(settings, "Method: "+opts.Method)
	}
	if opts.Region != "" {
		settings = append(settings, "Fit region: "+opts.Region)
	}
	settings = append(settings, fmt.Sprintf("Distributions fitted: %d of %d", analysisResults.Fitted(), len(analysisResults.Results)))
	styler.writeParagraph(strings.Join(settings, "    "), "normal", "L")
	styler.addSpacer(3)

	fitHeaders := []string{"Field", "Model", "Parameters", "Error", "Error/bin", "Median", "IQR", "Q90-Q10"}
	fitColWidths := []float64{0.15, 0.14, 0.27, 0.09, 0.09, 0.09, 0.085, 0.085}

	for _, phase := range analysisResults.Phases() {
		styler.writeParagraph(fmt.Sprintf("Phase %s", phase), "h2", "L")

		var rows [][]string
		var failed []bool
		for _, res := range analysisResults.Results {
			if res.Phase != phase {
				continue
			}
			rows = append(rows, fitRow(res))
			failed = append(failed, res.Best == nil)
		}
		styler.drawTable(fitHeaders, fitColWidths, rows, func(row, col int) string {
			if failed[row] && col == 1 {
				return "tableCellRed"
			}
			return "tableCell"
		})
		styler.addSpacer(5)
	}

	writeCandidateScores(styler, analysisResults)

	top := opts.Top
	if top <= 0 {
		top = DefaultTop
	}
	styler.writeParagraph(fmt.Sprintf("Top %d Worst Fits", top), "h2", "L")
	if len(analysisResults.RankedByError) > 0 {
		var rows [][]string
		for i, item := range analysisResults.RankedByError {
			if i >= top {
				break
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				item.Phase,
				item.Field,
				string(item.Model),
				formatValue(item.Value),
			})
		}
		styler.drawTable([]string{"Rank", "Phase", "Field", "Model", "Error"}, []float64{0.1, 0.2, 0.3, 0.2, 0.2}, rows, nil)
	} else {
		styler.writeParagraph("No fitted distributions to rank.", "normal", "L")
	}
	styler.addSpacer(5)

	writeWarnings(styler, analysisResults, opts.ParseErrors)
}

func fitRow(res analysis.DistributionResult) []string {
	model, params, score := "none", "-", "-"
	if res.Best != nil {
		model = string(res.Best.Name)
		params = formatParams(res.Best.Params)
		score = formatValue(res.Best.Error)
	}
	return []string{
		res.Field,
		model,
		params,
		score,
		formatValue(res.ReducedError),
		formatValue(res.Metrics.Median),
		formatValue(res.Metrics.IQR),
		formatValue(res.Metrics.Q90Q10Range),
	}
}

// writeCandidateScores lists every candidate's error score side by side.
func writeCandidateScores(styler *pdfStyler, analysisResults *analysis.AnalysisResults) {
	var models []string
	seen := make(map[string]bool)
	for _, res := range analysisResults.Results {
		for _, c := range res.Candidates {
			if name := string(c.Model); !seen[name] {
				seen[name] = true
				models = append(models, name)
			}
		}
	}
	if len(models) == 0 {
		return
	}

	headers := append([]string{"Phase", "Field"}, models...)
	colWidths := make([]float64, len(headers))
	colWidths[0], colWidths[1] = 0.15, 0.2
	for i := 2; i < len(colWidths); i++ {
		colWidths[i] = 0.65 / float64(len(models))
	}

	var rows [][]string
	for _, res := range analysisResults.Results {
		if len(res.Candidates) == 0 {
			continue
		}
		row := []string{res.Phase, res.Field}
		for _, name := range models {
			cell := "-"
			for _, c := range res.Candidates {
				if string(c.Model) != name {
					continue
				}
				if c.Failure != "" {
					cell = "failed"
				} else {
					cell = formatValue(c.Error)
				}
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	styler.writeParagraph("Candidate Error Scores", "h2", "L")
	styler.drawTable(headers, colWidths, rows, func(row, col int) string {
		if rows[row][col] == "failed" {
			return "tableCellRed"
		}
		return "tableCell"
	})
	styler.addSpacer(5)
}

func writeWarnings(styler *pdfStyler, analysisResults *analysis.AnalysisResults, parseErrors []string) {
	var warnings []string
	warnings = append(warnings, parseErrors...)
	if analysisResults != nil {
		warnings = append(warnings, analysisResults.AnalysisErrors...)
	}
	if len(warnings) == 0 {
		return
	}
	styler.writeParagraph("Warnings", "h2", "L")
	for _, w := range warnings {
		styler.writeParagraph(w, "small", "L")
	}
}

// formatValue prints a float compactly, with n/a for NaN.
func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'g', 4, 64)
	}
}

func formatParams(params []float64) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return strings.Join(parts, ", ")
}
