package sentiment

import (
	"testing"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

func TestKeywordSentimentPrecedence(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		// anger beats everything else
		{"great product but customers call for a boycott", model.SentimentAnger},
		{"thank you, the launch was a success", model.SentimentAppreciation},
		{"record growth but heavy losses in europe", model.SentimentMixed},
		{"excellent quarter with strong results", model.SentimentPositive},
		{"another outage and more layoffs", model.SentimentNegative},
		{"the company issued a statement today", model.SentimentNeutral},
		{"", model.SentimentNeutral},
	}
	for _, tc := range cases {
		if got := KeywordSentiment(tc.text); got != tc.want {
			t.Errorf("KeywordSentiment(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestKeywordSentimentCaseInsensitive(t *testing.T) {
	if got := KeywordSentiment("FURIOUS shareholders demand answers"); got != model.SentimentAnger {
		t.Errorf("got %q, want anger", got)
	}
}
