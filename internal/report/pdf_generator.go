package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// Plot keys understood by BuildPDFReport.
const (
	PlotEfficiency = "efficiency"
	PlotPhase      = "phase_function"
	PlotAsymmetry  = "asymmetry"
)

// pdfStyler tracks the flow position on the current page.
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.styles["h1"] = func() { s.font("B", 16, 0) }
	s.styles["h2"] = func() { s.font("B", 13, 0) }
	s.styles["normal"] = func() { s.font("", 10, 0) }
	s.styles["tableHeader"] = func() {
		s.font("B", 9, 0)
		s.pdf.SetFillColor(200, 200, 200)
	}
	s.styles["tableCell"] = func() { s.font("", 9, 50) }
	return s
}

func (s *pdfStyler) font(style string, size float64, grey int) {
	s.pdf.SetFont("Arial", style, size)
	s.pdf.SetTextColor(grey, grey, grey)
}

func (s *pdfStyler) applyStyle(name string) {
	if fn, ok := s.styles[name]; ok {
		fn()
		return
	}
	s.styles["normal"]()
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(needed float64) {
	if s.currentY+needed > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text, style, align string) {
	s.applyStyle(style)
	lines := s.pdf.SplitText(text, pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)
	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(img []byte, name string, width, height float64, caption string) {
	s.pdf.RegisterImageReader(name, "PNG", bytes.NewReader(img))
	if width > pdfContentWidth {
		height *= pdfContentWidth / width
		width = pdfContentWidth
	}
	s.checkAddPage(height + s.lineHeight)
	s.pdf.Image(name, pdfMargin+(pdfContentWidth-width)/2, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height
	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

func (s *pdfStyler) table(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}
	row := func(cells []string, style string, fill bool) {
		s.checkAddPage(s.lineHeight)
		s.applyStyle(style)
		x := pdfMargin
		for i, cell := range cells {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, cell, "1", 0, "C", fill, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}
	s.checkAddPage(s.lineHeight * 2)
	row(headers, "tableHeader", true)
	for _, r := range rows {
		row(r, "tableCell", false)
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

// BuildPDFReport writes a quick-look report of a converted kernel to path.
// plotImages holds PNGs keyed by the Plot constants; missing plots are noted
// in place.
func BuildPDFReport(path string, k *kernel.Kernel, d *analysis.Derived, plotImages map[string][]byte) error {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()
	s := newPDFStyler(pdf)

	s.writeParagraph(fmt.Sprintf("Kernel %s", k.Name), "h1", "C")
	s.addSpacer(3)
	s.writeParagraph(fmt.Sprintf("Wavelength %g, bin scale %.8g", k.Wavelength, d.BinScale), "normal", "L")
	s.writeParagraph(fmt.Sprintf("%d aspect ratios, %d x %d refractive indices, %d sizes, %d angles, elements %v",
		len(k.Ratios), len(k.MR), len(k.MI), len(k.X), len(k.Angles), k.Elements), "normal", "L")
	if k.Digest != "" {
		s.writeParagraph("Source BLAKE3 "+k.Digest, "normal", "L")
	}
	s.addSpacer(4)

	s.writeParagraph("Quantities", "h2", "L")
	var rows [][]string
	for _, sum := range Summarize(k, d) {
		rows = append(rows, []string{
			sum.Name,
			fmt.Sprintf("%d", sum.Count),
			fmt.Sprintf("%d", sum.NaN),
			formatStat(sum.Min),
			formatStat(sum.Max),
			formatStat(sum.Mean),
			formatStat(sum.StdDev),
		})
	}
	s.table([]string{"Quantity", "Finite", "NaN", "Min", "Max", "Mean", "Std Dev"},
		[]float64{0.16, 0.12, 0.12, 0.15, 0.15, 0.15, 0.15}, rows)

	plotDefs := []struct {
		key, title string
	}{
		{PlotEfficiency, "Extinction and scattering efficiency"},
		{PlotPhase, "Phase function"},
		{PlotAsymmetry, "Asymmetry parameter"},
	}
	imgWidth := pdfContentWidth * 0.85
	for _, def := range plotDefs {
		s.newPage()
		s.writeParagraph(def.title, "h2", "L")
		img, ok := plotImages[def.key]
		if !ok || len(img) == 0 {
			s.writeParagraph(fmt.Sprintf("Plot %s not available.", def.key), "normal", "L")
			continue
		}
		s.addImage(img, def.key, imgWidth, imgWidth/2, "")
	}

	return pdf.OutputFileAndClose(path)
}

// Generate renders the standard plots of a kernel and writes the PDF report
// to path. Plots that cannot be drawn for the kernel's shape are skipped with
// a warning.
func Generate(path string, k *kernel.Kernel, d *analysis.Derived, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	cell := Cell{}
	mid := len(k.X) / 2

	plots := make(map[string][]byte)
	for _, pc := range []struct {
		key  string
		draw func() ([]byte, error)
	}{
		{PlotEfficiency, func() ([]byte, error) { return CreateEfficiencyPlot(k, d, cell) }},
		{PlotPhase, func() ([]byte, error) { return CreatePhaseFunctionPlot(k, cell, mid) }},
		{PlotAsymmetry, func() ([]byte, error) { return CreateAsymmetryHeatmap(k, d, 0, cell.MI) }},
	} {
		img, err := pc.draw()
		if err != nil {
			log.Warn("skipping plot", zap.String("plot", pc.key), zap.Error(err))
			continue
		}
		log.Debug("plot rendered", zap.String("plot", pc.key), zap.Int("bytes", len(img)))
		plots[pc.key] = img
	}

	if err := BuildPDFReport(path, k, d, plots); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	log.Info("report written", zap.String("file", path), zap.Int("plots", len(plots)))
	return nil
}
