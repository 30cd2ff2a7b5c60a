// Package kpi rolls classified mentions up into the PR scorecard.
package kpi

import (
	"sort"
	"strings"
	"time"

	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/source"
)

// Sources whose engagement counts toward the engagement rate. Placeholder
// social domains match too ("dummy.fb.com" contains "fb").
var socialSources = []string{"fb", "ig", "threads", "twitter", "x", "reddit.com"}

// Compute aggregates all KPIs for one run.
//
// hours > 0 re-filters mentions by publication time; mentions with missing or
// unparseable dates are kept, matching the lenient ingestion behavior.
func Compute(mentions []model.Mention, campaignMessages []string, brand string, hours int) *model.KPISnapshot {
	if hours > 0 {
		mentions = FilterByHours(mentions, hours, time.Now().UTC())
	}

	total := len(mentions)
	if total == 0 {
		snap := &model.KPISnapshot{
			SentimentRatio: map[string]float64{},
			SOV:            []model.SOVEntry{},
		}
		if brand != "" {
			snap.AllBrands = []string{brand}
		}
		return snap
	}

	allBrands := collectBrands(mentions, brand)

	snap := &model.KPISnapshot{
		SentimentRatio: sentimentRatio(mentions, total),
		SOV:            shareOfVoice(mentions, allBrands),
		MIS:            mediaImpactScore(mentions),
		MPI:            messagePenetration(mentions, campaignMessages, total),
		EngagementRate: engagementRate(mentions),
		Reach:          totalReach(mentions),
		AllBrands:      allBrands,
		TotalMentions:  total,
	}
	return snap
}

// FilterByHours keeps mentions published after the cutoff. Records whose date
// cannot be parsed are included rather than dropped.
func FilterByHours(mentions []model.Mention, hours int, now time.Time) []model.Mention {
	cutoff := now.Add(-time.Duration(hours) * time.Hour)
	out := make([]model.Mention, 0, len(mentions))
	for _, m := range mentions {
		t, ok := source.ParseDate(m.Date)
		if !ok {
			out = append(out, m)
			continue
		}
		if !t.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}

// collectBrands unions the primary brand with every brand seen in the data,
// sorted, primary brand first.
func collectBrands(mentions []model.Mention, brand string) []string {
	set := map[string]bool{}
	if brand != "" {
		set[brand] = true
	}
	for _, m := range mentions {
		for _, b := range m.MentionedBrands {
			if b != "" {
				set[b] = true
			}
		}
	}

	list := make([]string, 0, len(set))
	for b := range set {
		if b != brand {
			list = append(list, b)
		}
	}
	sort.Strings(list)
	if brand != "" {
		list = append([]string{brand}, list...)
	}
	return list
}

func sentimentRatio(mentions []model.Mention, total int) map[string]float64 {
	counts := map[string]int{}
	for _, m := range mentions {
		tone := m.Sentiment
		if tone == "" {
			tone = model.SentimentNeutral
		}
		counts[tone]++
	}

	ratio := make(map[string]float64, len(counts))
	for tone, n := range counts {
		ratio[tone] = float64(n) / float64(total) * 100
	}
	return ratio
}

// shareOfVoice counts each mention once per distinct tracked brand it names
// and normalizes by the total brand-naming count.
func shareOfVoice(mentions []model.Mention, allBrands []string) []model.SOVEntry {
	tracked := map[string]bool{}
	for _, b := range allBrands {
		tracked[b] = true
	}

	counts := map[string]int{}
	totalNamed := 0
	for _, m := range mentions {
		present := map[string]bool{}
		for _, b := range m.MentionedBrands {
			if tracked[b] {
				present[b] = true
			}
		}
		for b := range present {
			counts[b]++
			totalNamed++
		}
	}

	sov := make([]model.SOVEntry, 0, len(allBrands))
	for _, b := range allBrands {
		pct := 0.0
		if totalNamed > 0 {
			pct = float64(counts[b]) / float64(totalNamed) * 100
		}
		sov = append(sov, model.SOVEntry{Brand: b, Percent: pct})
	}
	return sov
}

// mediaImpactScore sums source authority over favorably toned mentions.
func mediaImpactScore(mentions []model.Mention) int {
	mis := 0
	for _, m := range mentions {
		if m.Sentiment == model.SentimentPositive || m.Sentiment == model.SentimentAppreciation {
			mis += m.Authority
		}
	}
	return mis
}

// messagePenetration is the share of mentions echoing any campaign message.
func messagePenetration(mentions []model.Mention, campaignMessages []string, total int) float64 {
	if len(campaignMessages) == 0 {
		return 0
	}

	lowered := make([]string, 0, len(campaignMessages))
	for _, msg := range campaignMessages {
		if msg != "" {
			lowered = append(lowered, strings.ToLower(msg))
		}
	}

	matches := 0
	for _, m := range mentions {
		text := strings.ToLower(m.Text)
		for _, msg := range lowered {
			if strings.Contains(text, msg) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(total) * 100
}

// engagementRate averages likes+comments over social-platform mentions.
func engagementRate(mentions []model.Mention) float64 {
	totalEngagement := 0
	socialCount := 0
	for _, m := range mentions {
		if !isSocial(m.Source) {
			continue
		}
		totalEngagement += m.Likes + m.Comments
		socialCount++
	}
	if socialCount == 0 {
		return 0
	}
	return float64(totalEngagement) / float64(socialCount)
}

func isSocial(sourceDomain string) bool {
	lower := strings.ToLower(sourceDomain)
	for _, s := range socialSources {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func totalReach(mentions []model.Mention) int {
	reach := 0
	for _, m := range mentions {
		reach += m.Reach
	}
	return reach
}
