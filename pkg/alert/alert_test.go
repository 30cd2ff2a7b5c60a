package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/model"
)

type stubSlack struct {
	err      error
	messages []string
}

func (s *stubSlack) Send(ctx context.Context, message string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	return nil
}

type stubEmail struct {
	err      error
	subjects []string
}

func (s *stubEmail) Send(subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.subjects = append(s.subjects, subject)
	return nil
}

type stubIncident struct {
	err     error
	created []string
}

func (s *stubIncident) Create(ctx context.Context, shortDescription, description string) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, shortDescription)
	return nil
}

func negativeRun(negPct float64) *model.Run {
	return &model.Run{
		ID:    "run-1",
		Brief: model.Brief{Brand: "Acme", Hours: 24},
		KPIs: &model.KPISnapshot{
			SentimentRatio: map[string]float64{model.SentimentNegative: negPct},
			TotalMentions:  10,
		},
		Mentions: []model.Mention{
			{Text: "Acme outage leaves customers stranded", Source: "bbc.com", Sentiment: model.SentimentNegative},
			{Text: "great launch", Source: "fb", Sentiment: model.SentimentPositive},
		},
	}
}

func testAlerter(threshold float64) (*Alerter, *stubSlack, *stubEmail, *stubIncident) {
	slack := &stubSlack{}
	email := &stubEmail{}
	incident := &stubIncident{}
	a := &Alerter{
		cfg:        config.AlertConfig{NegativeThreshold: threshold},
		slack:      slack,
		email:      email,
		servicenow: incident,
	}
	return a, slack, email, incident
}

func TestRunCompletedBelowThreshold(t *testing.T) {
	a, slack, email, incident := testAlerter(30)
	a.RunCompleted(context.Background(), negativeRun(10))
	assert.Empty(t, slack.messages)
	assert.Empty(t, email.subjects)
	assert.Empty(t, incident.created)
}

func TestRunCompletedNotifiesAndOpensIncident(t *testing.T) {
	a, slack, email, incident := testAlerter(30)
	a.RunCompleted(context.Background(), negativeRun(45))

	assert.Len(t, slack.messages, 1)
	assert.Contains(t, slack.messages[0], "Acme")
	assert.Contains(t, slack.messages[0], "45.0%")
	assert.Contains(t, slack.messages[0], "outage")
	assert.Empty(t, email.subjects)

	// The incident is opened regardless of notification success.
	assert.Len(t, incident.created, 1)
	assert.Contains(t, incident.created[0], "Acme")
}

func TestRunCompletedFallsBackToEmail(t *testing.T) {
	a, slack, email, incident := testAlerter(30)
	slack.err = errors.New("slack down")

	a.RunCompleted(context.Background(), negativeRun(45))
	assert.Len(t, email.subjects, 1)
	assert.Contains(t, email.subjects[0], "Acme")
	assert.Len(t, incident.created, 1)
}

func TestRunCompletedIncidentDespiteNotificationOutage(t *testing.T) {
	a, slack, email, incident := testAlerter(30)
	slack.err = errors.New("slack down")
	email.err = errors.New("smtp down")

	a.RunCompleted(context.Background(), negativeRun(45))
	assert.Len(t, incident.created, 1)
	assert.Contains(t, incident.created[0], "Acme")
}

func TestRunCompletedNotifiesDespiteIncidentFailure(t *testing.T) {
	a, slack, _, incident := testAlerter(30)
	incident.err = errors.New("servicenow down")

	a.RunCompleted(context.Background(), negativeRun(45))
	assert.Len(t, slack.messages, 1)
}

func TestRunCompletedAllChannelsDown(t *testing.T) {
	a, slack, email, incident := testAlerter(30)
	slack.err = errors.New("down")
	email.err = errors.New("down")
	incident.err = errors.New("down")

	// Must not panic; the message is logged instead.
	a.RunCompleted(context.Background(), negativeRun(45))
}

func TestRunCompletedAngerCountsTowardThreshold(t *testing.T) {
	a, slack, _, _ := testAlerter(30)
	run := negativeRun(20)
	run.KPIs.SentimentRatio[model.SentimentAnger] = 15

	a.RunCompleted(context.Background(), run)
	assert.Len(t, slack.messages, 1)
}

func TestRunCompletedNoKPIs(t *testing.T) {
	a, slack, _, _ := testAlerter(30)
	a.RunCompleted(context.Background(), &model.Run{ID: "x"})
	assert.Empty(t, slack.messages)
}
