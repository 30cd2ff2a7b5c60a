// Package report renders run results as markdown, PDF and spreadsheet
// exports, with an LLM-written executive summary.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/model"
)

const mockSummary = "**Summary:**\n* Sentiment is mixed.\n* Coverage volume is within the normal range.\n\n**Recommendations:**\n* Monitor trending keywords.\n* Re-run once more data is available."

const summarySystemPrompt = "You are a professional PR crisis manager. Respond in markdown only."

// Generator is the slice of the LLM chain the report writer needs.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Builder renders report artifacts for a finished run.
type Builder struct {
	chain Generator
}

// NewBuilder creates a report builder. chain may be nil; the AI summary then
// falls back to static text.
func NewBuilder(chain Generator) *Builder {
	return &Builder{chain: chain}
}

// Summary asks the LLM for a two-bullet situation summary plus
// recommendations. Falls back to a canned summary on any failure.
func (b *Builder) Summary(ctx context.Context, run *model.Run) string {
	if b.chain == nil || run.KPIs == nil {
		return mockSummary
	}

	var positive, negative []string
	for _, m := range run.Mentions {
		switch m.Sentiment {
		case model.SentimentPositive:
			if len(positive) < 3 {
				positive = append(positive, m.Text)
			}
		case model.SentimentNegative, model.SentimentAnger:
			if len(negative) < 3 {
				negative = append(negative, m.Text)
			}
		}
	}

	kwPhrases := make([]string, 0, len(run.Keywords))
	for _, kw := range run.Keywords {
		kwPhrases = append(kwPhrases, kw.Phrase)
	}

	prompt := fmt.Sprintf(`Based on the following data summary for the brand '%s',
write a 2-bullet point summary of the situation and 2-3 actionable recommendations.
Format your response exactly like this, using markdown:

**Summary:**
* [Your summary bullet point 1]
* [Your summary bullet point 2]

**Recommendations:**
* [Your recommendation bullet point 1]
* [Your recommendation bullet point 2]

Data:
Sentiment Ratio: %v
Top Keywords: %s

Major Headlines (Positive):
%s

Major Headlines (Negative/Anger):
%s`,
		run.Brief.Brand,
		run.KPIs.SentimentRatio,
		strings.Join(kwPhrases, ", "),
		strings.Join(positive, "\n"),
		strings.Join(negative, "\n"))

	summary, err := b.chain.Generate(ctx, summarySystemPrompt, prompt)
	if err != nil {
		logger.Log.Warnf("ai summary failed, using fallback: %v", err)
		return mockSummary
	}
	return summary
}

// Markdown renders the report as markdown.
func (b *Builder) Markdown(run *model.Run, aiSummary string) string {
	kpis := run.KPIs
	generatedOn := time.Now().UTC().Format("2006-01-02 15:04 UTC")

	var md strings.Builder
	fmt.Fprintf(&md, "# Flash Narrative Report for %s\n\n", run.Brief.Brand)
	fmt.Fprintf(&md, "*This report covers the last %d hours.*\n\n", run.Brief.Hours)
	fmt.Fprintf(&md, "**Generated on:** %s\n\n", generatedOn)
	md.WriteString("## Overview\n\n")
	md.WriteString("This report provides insights into your brand's PR performance, including sentiment, visibility, and engagement.\n\n")

	md.WriteString("## Key Performance Indicators (KPIs)\n\n")
	if kpis != nil {
		fmt.Fprintf(&md, "- **MIS**: %d\n", kpis.MIS)
		fmt.Fprintf(&md, "- **MPI**: %.2f\n", kpis.MPI)
		fmt.Fprintf(&md, "- **Engagement Rate**: %.2f\n", kpis.EngagementRate)
		fmt.Fprintf(&md, "- **Reach/Impressions**: %d\n", kpis.Reach)
		md.WriteString(sentimentList(kpis.SentimentRatio))

		md.WriteString("\n### Share of Voice (SOV)\n\n| Brand | SOV (%) |\n|---|---|\n")
		for _, entry := range kpis.SOV {
			fmt.Fprintf(&md, "| %s | %.1f |\n", entry.Brand, entry.Percent)
		}
	}

	md.WriteString("\n## Top Keywords / Themes\n\n")
	if len(run.Keywords) > 0 {
		for _, kw := range run.Keywords {
			fmt.Fprintf(&md, "- %s: %d\n", kw.Phrase, kw.Count)
		}
	} else {
		md.WriteString("- No keywords identified.\n")
	}

	if aiSummary != "" {
		md.WriteString("\n## AI Summary\n\n")
		md.WriteString(aiSummary)
		md.WriteString("\n")
	}
	return md.String()
}

func sentimentList(ratio map[string]float64) string {
	var sb strings.Builder
	sb.WriteString("- **Sentiment Ratio**:\n")
	for _, tone := range model.ValidSentiments {
		if pct, ok := ratio[tone]; ok {
			fmt.Fprintf(&sb, "  - %s: %.1f%%\n", tone, pct)
		}
	}
	return sb.String()
}

// Recommendations derives the rule-based action list shown on the dashboard
// and in reports.
func Recommendations(kpis *model.KPISnapshot, kws []model.Keyword) []string {
	var recs []string
	if kpis == nil {
		return recs
	}

	negPct := kpis.SentimentRatio[model.SentimentNegative]
	posPct := kpis.SentimentRatio[model.SentimentPositive]
	switch {
	case negPct > 50:
		recs = append(recs, "High negative sentiment: escalate to PR and prioritize sentiment remediation plans.")
	case negPct > 30:
		recs = append(recs, "Moderate negative sentiment: investigate top negative sources and respond where necessary.")
	case posPct > 60:
		recs = append(recs, "Strong positive sentiment: capitalize on momentum with promotional pushes.")
	default:
		recs = append(recs, "Mixed sentiment: monitor trending keywords and refine messaging to increase MPI.")
	}

	if len(kws) > 0 {
		recs = append(recs, fmt.Sprintf("Consider content or campaign ideas around \"%s\", which is trending in recent coverage.", kws[0].Phrase))
	}
	return recs
}
