package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// PDF renders the report as a PDF document.
func (b *Builder) PDF(run *model.Run, aiSummary string) ([]byte, error) {
	brand := run.Brief.Brand
	generatedOn := time.Now().UTC().Format("2006-01-02 15:04 UTC")

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s - Flash Narrative Report", brand), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		footer := fmt.Sprintf("Generated on %s   |   Page %d", generatedOn, pdf.PageNo())
		pdf.CellFormat(0, 10, footer, "", 0, "L", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Flash Narrative Report - %s", brand), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("This report covers the last %d hours.", run.Brief.Hours), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if run.KPIs != nil {
		writeKPIBlock(pdf, run.KPIs)
		writeSentimentBars(pdf, run.KPIs.SentimentRatio)
		writeSOVTable(pdf, run.KPIs.SOV)
	}
	writeKeywords(pdf, run.Keywords)

	if aiSummary != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "AI Summary", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, aiSummary, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func writeKPIBlock(pdf *fpdf.Fpdf, kpis *model.KPISnapshot) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Key Performance Indicators", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	line := fmt.Sprintf("MIS: %d   |   MPI: %.2f   |   Engagement: %.2f   |   Reach: %d",
		kpis.MIS, kpis.MPI, kpis.EngagementRate, kpis.Reach)
	pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	pdf.Ln(3)
}

// writeSentimentBars draws the sentiment distribution as labelled bars.
func writeSentimentBars(pdf *fpdf.Fpdf, ratio map[string]float64) {
	if len(ratio) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Sentiment Distribution", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	const maxBarWidth = 100.0
	for _, tone := range model.ValidSentiments {
		pct, ok := ratio[tone]
		if !ok {
			continue
		}
		pdf.CellFormat(35, 5, fmt.Sprintf("%s %.1f%%", tone, pct), "", 0, "L", false, 0, "")
		x, y := pdf.GetXY()
		pdf.SetFillColor(52, 152, 219)
		pdf.Rect(x, y+1, maxBarWidth*pct/100, 3.5, "F")
		pdf.Ln(5)
	}
	pdf.Ln(3)
}

func writeSOVTable(pdf *fpdf.Fpdf, sov []model.SOVEntry) {
	if len(sov) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Share of Voice", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, entry := range sov {
		pdf.CellFormat(60, 6, entry.Brand, "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f%%", entry.Percent), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func writeKeywords(pdf *fpdf.Fpdf, kws []model.Keyword) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Top Keywords / Themes", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(kws) == 0 {
		pdf.CellFormat(0, 6, "No keywords identified.", "", 1, "L", false, 0, "")
		return
	}
	for _, kw := range kws {
		pdf.CellFormat(0, 5, fmt.Sprintf("%s: %d", kw.Phrase, kw.Count), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}
