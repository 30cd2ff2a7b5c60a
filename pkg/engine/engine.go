// Package engine drives one monitoring pass: fetch, classify, aggregate,
// extract, persist, alert.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/keywords"
	"github.com/flashnarrative/flashnarrative/pkg/kpi"
	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/sentiment"
	"github.com/flashnarrative/flashnarrative/pkg/source"
	"github.com/flashnarrative/flashnarrative/pkg/source/factory"
)

// When the primary sources produce fewer mentions than this, the fallback
// fetcher is consulted.
const fallbackThreshold = 5

const enrichTextThreshold = 120

// Store persists run outcomes. May be nil when running without a database.
type Store interface {
	CreateRun(run *model.Run) error
	FinishRun(run *model.Run) error
}

// Notifier is told about finished runs so alert rules can fire.
type Notifier interface {
	RunCompleted(ctx context.Context, run *model.Run)
}

// ProgressFunc receives coarse progress updates during a run.
type ProgressFunc func(stage string, progress int)

// Engine executes monitoring runs.
type Engine struct {
	cfg        *config.Config
	store      Store
	fetchers   *factory.Set
	classifier *sentiment.Classifier
	notifier   Notifier
	cache      *gocache.Cache

	mu      sync.RWMutex
	running map[string]*model.Run
}

// New creates an engine. store and notifier may be nil.
func New(cfg *config.Config, store Store, fetchers *factory.Set, classifier *sentiment.Classifier, notifier Notifier) *Engine {
	ttl := time.Duration(cfg.Sources.CacheTTLMins) * time.Minute
	return &Engine{
		cfg:        cfg,
		store:      store,
		fetchers:   fetchers,
		classifier: classifier,
		notifier:   notifier,
		cache:      gocache.New(ttl, 2*ttl),
		running:    make(map[string]*model.Run),
	}
}

// StartRun launches a run in the background and returns its ID immediately.
func (e *Engine) StartRun(brief model.Brief) (string, error) {
	brief.Normalize()
	if brief.Brand == "" {
		return "", fmt.Errorf("brief: brand is required")
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		Brief:     brief,
		Status:    model.RunStatusPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	e.mu.Lock()
	e.running[run.ID] = run
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.CreateRun(run); err != nil {
			logger.Log.Errorf("failed to record run [%s]: %v", run.ID, err)
		}
	}

	go func() {
		ctx := context.Background()
		if err := e.Run(ctx, run, func(stage string, progress int) {
			e.mu.Lock()
			run.Stage = stage
			run.Progress = progress
			e.mu.Unlock()
		}); err != nil {
			logger.Log.Errorf("run failed [%s]: %v", run.ID, err)
		}
	}()

	return run.ID, nil
}

// RunStatus returns a copy of the in-flight run state, or nil when unknown.
func (e *Engine) RunStatus(id string) *model.Run {
	e.mu.RLock()
	defer e.mu.RUnlock()
	run, ok := e.running[id]
	if !ok {
		return nil
	}
	cp := *run
	return &cp
}

// Run executes one monitoring pass synchronously, updating run in place.
func (e *Engine) Run(ctx context.Context, run *model.Run, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string, int) {}
	}

	logger.Log.Infof("starting run [%s] for brand [%s], %dh window", run.ID, run.Brief.Brand, run.Brief.Hours)
	e.setStatus(run, model.RunStatusRunning)
	progress("starting", 0)

	err := e.run(ctx, run, progress)
	e.mu.Lock()
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = model.RunStatusCompleted
	}
	e.mu.Unlock()
	if err == nil {
		progress("completed", 100)
	}

	if e.store != nil {
		if serr := e.store.FinishRun(run); serr != nil {
			logger.Log.Errorf("failed to persist run [%s]: %v", run.ID, serr)
		}
	}

	if err == nil && e.notifier != nil {
		e.notifier.RunCompleted(ctx, run)
	}
	return err
}

func (e *Engine) run(ctx context.Context, run *model.Run, progress ProgressFunc) error {
	progress("fetching", 10)
	mentions, err := e.fetchAll(ctx, &run.Brief)
	if err != nil {
		return err
	}
	logger.Log.Infof("run [%s]: %d mentions collected", run.ID, len(mentions))

	progress("classifying", 40)
	e.enrich(mentions)
	e.classifier.ClassifyAll(ctx, mentions)

	progress("aggregating", 80)
	snapshot := kpi.Compute(mentions, run.Brief.CampaignMessages, run.Brief.Brand, run.Brief.Hours)

	var sb strings.Builder
	for _, m := range mentions {
		sb.WriteString(m.Text)
		sb.WriteString(" ")
	}
	kws := keywords.Extract(sb.String(), keywords.DefaultTopN)

	// Results land under the lock; status pollers copy the run concurrently.
	e.mu.Lock()
	run.Mentions = mentions
	run.KPIs = snapshot
	run.Keywords = kws
	e.mu.Unlock()

	progress("saving", 90)
	return nil
}

// fetchAll runs the primary fetchers concurrently, consults the fallback when
// the yield is thin, dedupes, and caches the merged result.
func (e *Engine) fetchAll(ctx context.Context, brief *model.Brief) ([]model.Mention, error) {
	key := cacheKey(brief)
	if cached, ok := e.cache.Get(key); ok {
		logger.Log.Debugf("fetch cache hit [%s]", key)
		return cached.([]model.Mention), nil
	}

	req := &source.Request{
		Brand:       brief.Brand,
		Competitors: brief.Competitors,
		Industry:    brief.Industry,
		Hours:       brief.Hours,
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var aggregated []model.Mention

	for _, f := range e.fetchers.Primary {
		wg.Add(1)
		go func(f source.Fetcher) {
			defer wg.Done()
			mentions, err := f.Fetch(ctx, req)
			if err != nil {
				logger.Log.Errorf("source [%s] failed: %v", f.Name(), err)
				return
			}
			mu.Lock()
			aggregated = append(aggregated, mentions...)
			mu.Unlock()
		}(f)
	}
	wg.Wait()

	if len(aggregated) < fallbackThreshold && e.fetchers.Fallback != nil {
		mentions, err := e.fetchers.Fallback.Fetch(ctx, req)
		if err != nil {
			logger.Log.Warnf("fallback source [%s] failed: %v", e.fetchers.Fallback.Name(), err)
		} else {
			aggregated = append(aggregated, mentions...)
		}
	}

	deduped := dedupe(aggregated)
	e.cache.SetDefault(key, deduped)
	return deduped, nil
}

// enrich pulls article bodies for news mentions whose text is too short to
// classify meaningfully.
func (e *Engine) enrich(mentions []model.Mention) {
	for i := range mentions {
		m := &mentions[i]
		if len(m.Text) >= enrichTextThreshold || m.Link == "" || strings.HasPrefix(m.Source, "dummy.") {
			continue
		}
		article, err := readability.FromURL(m.Link, 30*time.Second)
		if err != nil {
			logger.Log.Debugf("content fetch failed [%s]: %v", m.Link, err)
			continue
		}
		content := strings.TrimSpace(article.TextContent)
		if len(content) > 1000 {
			content = content[:1000]
		}
		if len(content) > len(m.Text) {
			m.Text = m.Text + " " + content
		}
	}
}

func (e *Engine) setStatus(run *model.Run, status string) {
	e.mu.Lock()
	run.Status = status
	e.mu.Unlock()
}

// dedupe removes records sharing link + leading text.
func dedupe(mentions []model.Mention) []model.Mention {
	seen := make(map[string]bool, len(mentions))
	out := make([]model.Mention, 0, len(mentions))
	for _, m := range mentions {
		text := m.Text
		if len(text) > 200 {
			text = text[:200]
		}
		sig := m.Link + "||" + text
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, m)
	}
	return out
}

func cacheKey(brief *model.Brief) string {
	comps := append([]string(nil), brief.Competitors...)
	sort.Strings(comps)
	return fmt.Sprintf("%s|%d|%s", strings.ToLower(brief.Brand), brief.Hours, strings.Join(comps, ","))
}
