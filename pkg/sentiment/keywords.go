package sentiment

import (
	"strings"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// Fixed keyword lists for the offline fallback. Order of precedence:
// anger, appreciation, mixed (both polarities hit), positive, negative.
var (
	angerWords = []string{
		"furious", "outrage", "outraged", "scandal", "boycott", "disgusting",
		"angry", "unacceptable", "lawsuit", "fraud", "betrayed",
	}
	appreciationWords = []string{
		"thank", "thanks", "grateful", "appreciate", "appreciation",
		"kudos", "congratulations", "well done", "shoutout",
	}
	positiveWords = []string{
		"great", "good", "excellent", "love", "win", "wins", "award",
		"growth", "success", "breakthrough", "launch", "record", "best",
		"innovative", "impressive", "strong",
	}
	negativeWords = []string{
		"bad", "poor", "fail", "failure", "loss", "losses", "decline",
		"recall", "layoff", "layoffs", "breach", "outage", "crisis",
		"worst", "drop", "plunge", "criticism", "complaint",
	}
)

// KeywordSentiment labels text with the static rules.
func KeywordSentiment(text string) string {
	lower := strings.ToLower(text)

	if containsAny(lower, angerWords) {
		return model.SentimentAnger
	}
	if containsAny(lower, appreciationWords) {
		return model.SentimentAppreciation
	}

	pos := containsAny(lower, positiveWords)
	neg := containsAny(lower, negativeWords)
	switch {
	case pos && neg:
		return model.SentimentMixed
	case pos:
		return model.SentimentPositive
	case neg:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
