package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

func TestComputeEmpty(t *testing.T) {
	snap := Compute(nil, nil, "Acme", 0)
	assert.Equal(t, 0, snap.TotalMentions)
	assert.Equal(t, []string{"Acme"}, snap.AllBrands)
	assert.Empty(t, snap.SentimentRatio)
	assert.Empty(t, snap.SOV)
}

func TestComputeFullScorecard(t *testing.T) {
	mentions := []model.Mention{
		{Text: "Acme announces record growth", Sentiment: model.SentimentPositive,
			MentionedBrands: []string{"Acme"}, Authority: 9, Reach: 50000, Source: "reuters.com"},
		{Text: "Thanks Acme for the great support", Sentiment: model.SentimentAppreciation,
			MentionedBrands: []string{"Acme"}, Authority: 5, Reach: 10000, Source: "dummy.fb.com",
			Likes: 100, Comments: 20},
		{Text: "Rival stock plunges after recall", Sentiment: model.SentimentNegative,
			MentionedBrands: []string{"Rival"}, Authority: 7, Reach: 30000, Source: "bbc.com"},
		{Text: "Acme and Rival face off", Sentiment: model.SentimentNeutral,
			MentionedBrands: []string{"Acme", "Rival"}, Authority: 4, Reach: 5000, Source: "dummy.ig.com",
			Likes: 30, Comments: 10},
	}

	snap := Compute(mentions, []string{"record growth"}, "Acme", 0)

	assert.Equal(t, 4, snap.TotalMentions)
	// positive 9 + appreciation 5
	assert.Equal(t, 14, snap.MIS)
	// one of four mentions echoes the campaign message
	assert.InDelta(t, 25.0, snap.MPI, 0.01)
	// two social mentions: (120 + 40) / 2
	assert.InDelta(t, 80.0, snap.EngagementRate, 0.01)
	assert.Equal(t, 95000, snap.Reach)
	assert.Equal(t, []string{"Acme", "Rival"}, snap.AllBrands)

	assert.InDelta(t, 25.0, snap.SentimentRatio[model.SentimentPositive], 0.01)
	assert.InDelta(t, 25.0, snap.SentimentRatio[model.SentimentNegative], 0.01)

	// Brand naming counts: Acme 3, Rival 2, total 5.
	sov := map[string]float64{}
	for _, e := range snap.SOV {
		sov[e.Brand] = e.Percent
	}
	assert.InDelta(t, 60.0, sov["Acme"], 0.01)
	assert.InDelta(t, 40.0, sov["Rival"], 0.01)
}

func TestSentimentRatioDefaultsToNeutral(t *testing.T) {
	mentions := []model.Mention{{Text: "no label"}}
	snap := Compute(mentions, nil, "Acme", 0)
	assert.InDelta(t, 100.0, snap.SentimentRatio[model.SentimentNeutral], 0.01)
}

func TestFilterByHours(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mentions := []model.Mention{
		{Text: "fresh", Date: now.Add(-2 * time.Hour).Format(time.RFC3339)},
		{Text: "stale", Date: now.Add(-48 * time.Hour).Format(time.RFC3339)},
		{Text: "undated", Date: ""},
		{Text: "garbled", Date: "not a date at all ???"},
	}

	kept := FilterByHours(mentions, 24, now)

	texts := make([]string, 0, len(kept))
	for _, m := range kept {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"fresh", "undated", "garbled"}, texts)
}

func TestNegativeShareCombinesAnger(t *testing.T) {
	mentions := []model.Mention{
		{Text: "a", Sentiment: model.SentimentNegative},
		{Text: "b", Sentiment: model.SentimentAnger},
		{Text: "c", Sentiment: model.SentimentPositive},
		{Text: "d", Sentiment: model.SentimentNeutral},
	}
	snap := Compute(mentions, nil, "Acme", 0)
	assert.InDelta(t, 50.0, snap.NegativeShare(), 0.01)
}

func TestIsSocial(t *testing.T) {
	cases := map[string]bool{
		"dummy.fb.com": true,
		"dummy.ig.com": true,
		"twitter.com":  true,
		"reddit.com":   true,
		"reuters.com":  false,
		"theverge.com": false,
	}
	for src, want := range cases {
		if got := isSocial(src); got != want {
			t.Errorf("isSocial(%q) = %v, want %v", src, got, want)
		}
	}
}
