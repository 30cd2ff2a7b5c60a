package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// Excel renders the report as an xlsx workbook with KPI, SOV and mention
// sheets.
func (b *Builder) Excel(run *model.Run) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const kpiSheet = "KPIs"
	f.SetSheetName("Sheet1", kpiSheet)

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Brand", run.Brief.Brand},
		{"Window (hours)", run.Brief.Hours},
	}
	if run.KPIs != nil {
		rows = append(rows,
			[]interface{}{"MIS", run.KPIs.MIS},
			[]interface{}{"MPI", run.KPIs.MPI},
			[]interface{}{"Engagement Rate", run.KPIs.EngagementRate},
			[]interface{}{"Reach", run.KPIs.Reach},
			[]interface{}{"Total Mentions", run.KPIs.TotalMentions},
		)
		for _, tone := range model.ValidSentiments {
			if pct, ok := run.KPIs.SentimentRatio[tone]; ok {
				rows = append(rows, []interface{}{"Sentiment: " + tone, fmt.Sprintf("%.1f%%", pct)})
			}
		}
	}
	if err := writeRows(f, kpiSheet, rows); err != nil {
		return nil, err
	}

	if run.KPIs != nil && len(run.KPIs.SOV) > 0 {
		const sovSheet = "Share of Voice"
		if _, err := f.NewSheet(sovSheet); err != nil {
			return nil, err
		}
		sovRows := [][]interface{}{{"Brand", "SOV (%)"}}
		for _, entry := range run.KPIs.SOV {
			sovRows = append(sovRows, []interface{}{entry.Brand, entry.Percent})
		}
		if err := writeRows(f, sovSheet, sovRows); err != nil {
			return nil, err
		}
	}

	const mentionSheet = "Mentions"
	if _, err := f.NewSheet(mentionSheet); err != nil {
		return nil, err
	}
	mentionRows := [][]interface{}{
		{"Text", "Source", "Date", "Link", "Brands", "Sentiment", "Authority", "Reach", "Likes", "Comments"},
	}
	for _, m := range run.Mentions {
		mentionRows = append(mentionRows, []interface{}{
			m.Text, m.Source, m.Date, m.Link,
			strings.Join(m.MentionedBrands, ", "),
			m.Sentiment, m.Authority, m.Reach, m.Likes, m.Comments,
		})
	}
	if err := writeRows(f, mentionSheet, mentionRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
