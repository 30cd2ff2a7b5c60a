// Package keywords extracts trending words and two-word phrases from mention
// text by combined frequency.
package keywords

import (
	"sort"
	"strings"
	"unicode"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// DefaultTopN is the number of keywords reported by default.
const DefaultTopN = 10

// Extract returns the top-N words and bigrams by combined frequency. Bigrams
// are kept only when they occur more than once. Ties break lexicographically
// so output is stable.
func Extract(text string, topN int) []model.Keyword {
	if topN <= 0 {
		topN = DefaultTopN
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	combined := map[string]int{}
	for _, t := range tokens {
		combined[t]++
	}

	bigrams := map[string]int{}
	for i := 0; i+1 < len(tokens); i++ {
		bigrams[tokens[i]+" "+tokens[i+1]]++
	}
	for phrase, n := range bigrams {
		if n > 1 {
			combined[phrase] += n
		}
	}

	out := make([]model.Keyword, 0, len(combined))
	for phrase, n := range combined {
		out = append(out, model.Keyword{Phrase: phrase, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phrase < out[j].Phrase
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// tokenize lowercases and keeps alphabetic tokens longer than two characters
// that are not stopwords.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 || !isAlpha(f) || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
