package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/engine"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/report"
	"github.com/flashnarrative/flashnarrative/pkg/sentiment"
	"github.com/flashnarrative/flashnarrative/pkg/source"
	"github.com/flashnarrative/flashnarrative/pkg/source/factory"
)

type stubFetcher struct{}

func (stubFetcher) Name() string { return "stub" }

func (stubFetcher) Fetch(ctx context.Context, req *source.Request) ([]model.Mention, error) {
	out := make([]model.Mention, 6)
	for i := range out {
		out[i] = model.Mention{
			Text:            "Acme keeps winning awards with its latest launch, a long enough headline to classify without fetching any article body at all",
			Source:          "example.com",
			Link:            "https://example.com/" + string(rune('a'+i)),
			MentionedBrands: []string{"Acme"},
			Authority:       5,
			Reach:           1000,
		}
	}
	return out, nil
}

func newTestService() *Service {
	cfg := &config.Config{}
	cfg.Auth.JWTKey = "test-key"
	cfg.Sources.CacheTTLMins = 15

	classifier := sentiment.NewClassifier(nil, 2)
	set := &factory.Set{Primary: []source.Fetcher{stubFetcher{}}}
	eng := engine.New(cfg, nil, set, classifier, nil)
	return NewService(cfg, eng, nil, report.NewBuilder(nil))
}

func waitCompleted(t *testing.T, svc *Service, id string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		run, err := svc.RunStatus(context.Background(), id)
		require.NoError(t, err)
		if run.Status == model.RunStatusCompleted {
			return
		}
		if run.Status == model.RunStatusFailed {
			t.Fatalf("run failed: %s", run.Error)
		}
		select {
		case <-deadline:
			t.Fatal("run did not complete in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRegisterWithoutStorage(t *testing.T) {
	svc := newTestService()
	assert.Error(t, svc.Register(context.Background(), "user", "password1"))
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	assert.Error(t, svc.Register(context.Background(), "", "password1"))
	assert.Error(t, svc.Register(context.Background(), "user", "short"))
}

func TestStartRunAndReports(t *testing.T) {
	svc := newTestService()

	id, err := svc.StartRun(context.Background(), model.Brief{Brand: "Acme", Hours: 24})
	require.NoError(t, err)
	waitCompleted(t, svc, id)

	run, err := svc.GetRun(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, run.KPIs)
	assert.Equal(t, 6, run.KPIs.TotalMentions)

	md, err := svc.ReportMarkdown(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, md, "Flash Narrative Report for Acme")

	pdf, err := svc.ReportPDF(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	xlsx, err := svc.ReportExcel(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(xlsx[:2]))
}

func TestEmailReportWithoutSMTP(t *testing.T) {
	svc := newTestService()
	id, err := svc.StartRun(context.Background(), model.Brief{Brand: "Acme", Hours: 24})
	require.NoError(t, err)
	waitCompleted(t, svc, id)

	assert.Error(t, svc.EmailReport(context.Background(), id, "pr@example.com"))
}

func TestStartRunRejectsEmptyBrand(t *testing.T) {
	svc := newTestService()
	_, err := svc.StartRun(context.Background(), model.Brief{})
	assert.Error(t, err)
}

func TestRunStatusUnknown(t *testing.T) {
	svc := newTestService()
	_, err := svc.RunStatus(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListRunsWithoutStorage(t *testing.T) {
	svc := newTestService()
	runs, total, err := svc.ListRuns(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Zero(t, total)
}
