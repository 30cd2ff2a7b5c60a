// Package llm wraps the hosted chat endpoint with ordered model fallback,
// rate limiting and 429 retry.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/logger"
)

const (
	maxRetries = 3
	baseDelay  = 2 * time.Second
)

// Chain tries a fixed list of chat models in order. A model that fails is
// skipped until Reset, which callers invoke at the start of each
// classification pass so a transient failure does not outlive the run that
// hit it.
type Chain struct {
	names   []string
	models  []model.ChatModel
	limiter *rate.Limiter

	mu   sync.Mutex
	dead []bool
}

// NewChain builds one chat model per configured model name against the same
// OpenAI-compatible endpoint.
func NewChain(ctx context.Context, llmCfg config.LLMConfig, conc config.ConcurrencyConfig) (*Chain, error) {
	models := make([]model.ChatModel, 0, len(llmCfg.Models))
	for _, name := range llmCfg.Models {
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: llmCfg.BaseURL,
			APIKey:  llmCfg.APIKey,
			Model:   name,
		})
		if err != nil {
			return nil, fmt.Errorf("chat model init failed [%s]: %w", name, err)
		}
		models = append(models, cm)
	}

	limit := rate.Limit(float64(conc.RPM) / 60.0)
	limiter := rate.NewLimiter(limit, conc.QPS)

	return NewChainFromModels(llmCfg.Models, models, limiter), nil
}

// NewChainFromModels assembles a chain from pre-built models. Used by tests.
func NewChainFromModels(names []string, models []model.ChatModel, limiter *rate.Limiter) *Chain {
	return &Chain{
		names:   names,
		models:  models,
		limiter: limiter,
		dead:    make([]bool, len(models)),
	}
}

// Generate sends a system+user prompt down the chain and returns the cleaned
// response text of the first model that answers.
func (c *Chain) Generate(ctx context.Context, system, user string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	}

	var lastErr error
	for i, cm := range c.models {
		if c.isDead(i) {
			continue
		}

		content, err := c.generateWithRetry(ctx, cm, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		logger.Log.Warnf("model [%s] failed, falling back: %v", c.names[i], err)
		c.markDead(i)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no usable models in chain")
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func (c *Chain) generateWithRetry(ctx context.Context, cm model.ChatModel, messages []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		resp, err := cm.Generate(ctx, messages)
		if err != nil {
			lastErr = err
			if isRateLimited(err) && attempt < maxRetries {
				delay := baseDelay * time.Duration(1<<attempt)
				logger.Log.Warnf("rate limited, retrying in %v (%d/%d)", delay, attempt+1, maxRetries)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(delay):
					continue
				}
			}
			return "", err
		}
		return CleanResponse(resp.Content), nil
	}
	return "", lastErr
}

func (c *Chain) isDead(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dead[i]
}

func (c *Chain) markDead(i int) {
	c.mu.Lock()
	c.dead[i] = true
	c.mu.Unlock()
}

// Reset clears the dead-model marks so the next Generate walks the full
// lineup again.
func (c *Chain) Reset() {
	c.mu.Lock()
	for i := range c.dead {
		c.dead[i] = false
	}
	c.mu.Unlock()
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// CleanResponse strips markdown code fences the models like to wrap JSON in.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
