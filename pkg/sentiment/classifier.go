// Package sentiment labels mentions with a tone, preferring the hosted LLM
// and degrading to keyword rules when the whole model chain is down.
package sentiment

import (
	"context"
	"strings"
	"sync"

	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/model"
)

const promptTextLimit = 500

const systemPrompt = "You classify the tone of news headlines and social media posts. " +
	"Respond with only a single word: 'positive', 'negative', 'neutral', 'mixed', 'anger', or 'appreciation'."

// Generator is the slice of the LLM chain the classifier needs.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Classifier assigns sentiment labels to mentions.
type Classifier struct {
	chain   Generator
	workers int
}

// NewClassifier creates a classifier. chain may be nil, in which case only
// the keyword rules are used.
func NewClassifier(chain Generator, workers int) *Classifier {
	if workers < 1 {
		workers = 1
	}
	return &Classifier{chain: chain, workers: workers}
}

// Classify labels a single text.
func (c *Classifier) Classify(ctx context.Context, text string) string {
	if c.chain == nil {
		return KeywordSentiment(text)
	}

	chunk := text
	if len(chunk) > promptTextLimit {
		chunk = chunk[:promptTextLimit]
	}

	resp, err := c.chain.Generate(ctx, systemPrompt, "Text:\n"+chunk)
	if err != nil {
		logger.Log.Warnf("llm sentiment unavailable, using keyword rules: %v", err)
		return KeywordSentiment(text)
	}

	label := normalizeLabel(resp)
	if !model.IsValidSentiment(label) {
		return model.SentimentNeutral
	}
	return label
}

// ClassifyAll labels every mention in place using a bounded worker pool.
// Generators that track failed models are reset first, so a transient
// failure in an earlier run does not carry over.
func (c *Classifier) ClassifyAll(ctx context.Context, mentions []model.Mention) {
	if r, ok := c.chain.(interface{ Reset() }); ok {
		r.Reset()
	}

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for i := range mentions {
		wg.Add(1)
		sem <- struct{}{}
		go func(m *model.Mention) {
			defer wg.Done()
			defer func() { <-sem }()
			m.Sentiment = c.Classify(ctx, m.Text)
		}(&mentions[i])
	}
	wg.Wait()
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	// Models occasionally answer in a short sentence; keep the first word.
	if i := strings.IndexAny(s, " \n"); i > 0 {
		s = s[:i]
	}
	return s
}
