package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/sentiment"
	"github.com/flashnarrative/flashnarrative/pkg/source"
	"github.com/flashnarrative/flashnarrative/pkg/source/factory"
)

type stubFetcher struct {
	name     string
	mentions []model.Mention
	err      error
	delay    time.Duration
	calls    int
	mu       sync.Mutex
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, req *source.Request) ([]model.Mention, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.mentions, s.err
}

type stubStore struct {
	mu       sync.Mutex
	created  []string
	finished []string
}

func (s *stubStore) CreateRun(run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, run.ID)
	return nil
}

func (s *stubStore) FinishRun(run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, run.ID)
	return nil
}

type stubNotifier struct {
	mu   sync.Mutex
	runs []string
}

func (s *stubNotifier) RunCompleted(ctx context.Context, run *model.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run.ID)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Sources.CacheTTLMins = 15
	return cfg
}

func mentionsNamed(prefix string, n int) []model.Mention {
	out := make([]model.Mention, n)
	for i := range out {
		out[i] = model.Mention{
			Text:            prefix + " mention about Acme with a record quarter, long enough to skip content enrichment and classify directly from the headline text",
			Source:          "example.com",
			Link:            "https://example.com/" + prefix + string(rune('a'+i)),
			MentionedBrands: []string{"Acme"},
			Authority:       5,
			Reach:           1000,
		}
	}
	return out
}

func newTestEngine(set *factory.Set, store Store, notifier Notifier) *Engine {
	classifier := sentiment.NewClassifier(nil, 2)
	return New(testConfig(), store, set, classifier, notifier)
}

func TestRunHappyPath(t *testing.T) {
	fetcher := &stubFetcher{name: "stub", mentions: mentionsNamed("p", 6)}
	store := &stubStore{}
	notifier := &stubNotifier{}
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{fetcher}}, store, notifier)

	run := &model.Run{ID: "r1", Brief: model.Brief{Brand: "Acme", Hours: 24}}
	var stages []string
	err := eng.Run(context.Background(), run, func(stage string, progress int) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Len(t, run.Mentions, 6)
	require.NotNil(t, run.KPIs)
	assert.Equal(t, 6, run.KPIs.TotalMentions)
	assert.NotEmpty(t, run.Keywords)
	for _, m := range run.Mentions {
		assert.NotEmpty(t, m.Sentiment)
	}

	assert.Equal(t, []string{"r1"}, store.finished)
	assert.Equal(t, []string{"r1"}, notifier.runs)
	assert.Contains(t, stages, "fetching")
	assert.Contains(t, stages, "completed")
}

func TestRunFallbackWhenYieldThin(t *testing.T) {
	primary := &stubFetcher{name: "thin", mentions: mentionsNamed("p", 2)}
	fallback := &stubFetcher{name: "fallback", mentions: mentionsNamed("f", 4)}
	eng := newTestEngine(&factory.Set{
		Primary:  []source.Fetcher{primary},
		Fallback: fallback,
	}, nil, nil)

	run := &model.Run{ID: "r2", Brief: model.Brief{Brand: "Acme", Hours: 24}}
	require.NoError(t, eng.Run(context.Background(), run, nil))

	assert.Equal(t, 1, fallback.calls)
	assert.Len(t, run.Mentions, 6)
}

func TestRunFallbackSkippedWhenYieldHealthy(t *testing.T) {
	primary := &stubFetcher{name: "rich", mentions: mentionsNamed("p", 10)}
	fallback := &stubFetcher{name: "fallback"}
	eng := newTestEngine(&factory.Set{
		Primary:  []source.Fetcher{primary},
		Fallback: fallback,
	}, nil, nil)

	run := &model.Run{ID: "r3", Brief: model.Brief{Brand: "Acme", Hours: 24}}
	require.NoError(t, eng.Run(context.Background(), run, nil))
	assert.Zero(t, fallback.calls)
}

func TestRunSurvivesFailingPrimary(t *testing.T) {
	broken := &stubFetcher{name: "broken", err: errors.New("upstream down")}
	working := &stubFetcher{name: "working", mentions: mentionsNamed("w", 6)}
	eng := newTestEngine(&factory.Set{
		Primary: []source.Fetcher{broken, working},
	}, nil, nil)

	run := &model.Run{ID: "r4", Brief: model.Brief{Brand: "Acme", Hours: 24}}
	require.NoError(t, eng.Run(context.Background(), run, nil))
	assert.Len(t, run.Mentions, 6)
}

func TestFetchDedupes(t *testing.T) {
	dup := mentionsNamed("dup", 1)[0]
	fetcher := &stubFetcher{name: "dupes", mentions: []model.Mention{dup, dup, dup}}
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{fetcher}}, nil, nil)

	mentions, err := eng.fetchAll(context.Background(), &model.Brief{Brand: "Acme", Hours: 24})
	require.NoError(t, err)
	assert.Len(t, mentions, 1)
}

func TestFetchCaches(t *testing.T) {
	fetcher := &stubFetcher{name: "cached", mentions: mentionsNamed("c", 6)}
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{fetcher}}, nil, nil)

	brief := &model.Brief{Brand: "Acme", Hours: 24}
	_, err := eng.fetchAll(context.Background(), brief)
	require.NoError(t, err)
	_, err = eng.fetchAll(context.Background(), brief)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestStartRunRejectsEmptyBrand(t *testing.T) {
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{&stubFetcher{name: "s"}}}, nil, nil)
	_, err := eng.StartRun(model.Brief{})
	assert.Error(t, err)
}

func TestStartRunReportsProgress(t *testing.T) {
	fetcher := &stubFetcher{name: "stub", mentions: mentionsNamed("p", 6)}
	store := &stubStore{}
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{fetcher}}, store, nil)

	id, err := eng.StartRun(model.Brief{Brand: "Acme", Hours: 24})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	deadline := time.After(5 * time.Second)
	for {
		run := eng.RunStatus(id)
		require.NotNil(t, run)
		if run.Status == model.RunStatusCompleted {
			assert.Equal(t, 100, run.Progress)
			break
		}
		select {
		case <-deadline:
			t.Fatalf("run did not complete, status %s", run.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	assert.Equal(t, []string{id}, store.created)
}

// Hammers RunStatus while the run goroutine is still writing results; run
// under the race detector this pins down the locking around run mutation.
func TestRunStatusPollingDuringRun(t *testing.T) {
	fetcher := &stubFetcher{name: "slow", mentions: mentionsNamed("s", 6), delay: 30 * time.Millisecond}
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{fetcher}}, nil, nil)

	id, err := eng.StartRun(model.Brief{Brand: "Acme", Hours: 24})
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for {
		run := eng.RunStatus(id)
		require.NotNil(t, run)
		if run.Status == model.RunStatusCompleted {
			require.NotNil(t, run.KPIs)
			assert.Len(t, run.Mentions, 6)
			assert.NotEmpty(t, run.Keywords)
			break
		}
		if run.Status == model.RunStatusFailed {
			t.Fatalf("run failed: %s", run.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not complete, status %s", run.Status)
		}
	}
}

func TestRunStatusUnknownID(t *testing.T) {
	eng := newTestEngine(&factory.Set{Primary: []source.Fetcher{&stubFetcher{name: "s"}}}, nil, nil)
	assert.Nil(t, eng.RunStatus("nope"))
}
