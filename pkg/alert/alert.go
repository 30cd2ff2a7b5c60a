// Package alert fires notifications when a run's negative sentiment share
// crosses the configured threshold. A breach notifies the team over Slack,
// falling back to email, and independently opens a ServiceNow incident.
package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// Alerter evaluates finished runs against the alert rules.
type Alerter struct {
	cfg config.AlertConfig

	slack      slackSender
	email      emailSender
	servicenow incidentCreator
}

type slackSender interface {
	Send(ctx context.Context, message string) error
}

type emailSender interface {
	Send(subject, body string) error
}

type incidentCreator interface {
	Create(ctx context.Context, shortDescription, description string) error
}

// New builds an alerter from config. Channels with missing credentials are
// wired as no-ops that report failure so delivery degrades gracefully.
func New(cfg config.AlertConfig) *Alerter {
	return &Alerter{
		cfg:        cfg,
		slack:      newSlackClient(cfg.Slack),
		email:      newEmailClient(cfg.Email),
		servicenow: newServiceNowClient(cfg.ServiceNow),
	}
}

// RunCompleted checks the run's KPIs and dispatches an alert when warranted.
func (a *Alerter) RunCompleted(ctx context.Context, run *model.Run) {
	if run.KPIs == nil {
		return
	}
	negative := run.KPIs.NegativeShare()
	if negative < a.cfg.NegativeThreshold {
		logger.Log.Debugf("run [%s]: negative share %.1f%% below threshold %.1f%%, no alert",
			run.ID, negative, a.cfg.NegativeThreshold)
		return
	}

	message := a.buildMessage(run, negative)
	logger.Log.Warnf("run [%s]: negative share %.1f%% crossed threshold %.1f%%, alerting",
		run.ID, negative, a.cfg.NegativeThreshold)

	notified := a.notify(ctx, run, message)

	short := fmt.Sprintf("Negative sentiment spike for %s (%.1f%%)", run.Brief.Brand, negative)
	ticketErr := a.servicenow.Create(ctx, short, message)
	if ticketErr == nil {
		logger.Log.Infof("run [%s]: servicenow incident opened", run.ID)
	} else {
		logger.Log.Warnf("run [%s]: servicenow incident failed: %v", run.ID, ticketErr)
	}

	if !notified && ticketErr != nil {
		logger.Log.Errorf("run [%s]: all alert channels failed, message follows\n%s", run.ID, message)
	}
}

// notify tries Slack first and email second, stopping at the first channel
// that takes the message.
func (a *Alerter) notify(ctx context.Context, run *model.Run, message string) bool {
	err := a.slack.Send(ctx, message)
	if err == nil {
		logger.Log.Infof("run [%s]: alert delivered via slack", run.ID)
		return true
	}
	logger.Log.Warnf("run [%s]: slack alert failed: %v", run.ID, err)

	subject := fmt.Sprintf("[Flash Narrative] Negative sentiment alert for %s", run.Brief.Brand)
	err = a.email.Send(subject, message)
	if err == nil {
		logger.Log.Infof("run [%s]: alert delivered via email", run.ID)
		return true
	}
	logger.Log.Warnf("run [%s]: email alert failed: %v", run.ID, err)
	return false
}

func (a *Alerter) buildMessage(run *model.Run, negative float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ":rotating_light: Negative sentiment alert for *%s*\n\n", run.Brief.Brand)
	fmt.Fprintf(&sb, "Negative + anger share: %.1f%% (threshold %.1f%%)\n", negative, a.cfg.NegativeThreshold)
	fmt.Fprintf(&sb, "Mentions analyzed: %d over the last %d hours\n", run.KPIs.TotalMentions, run.Brief.Hours)

	var examples []string
	for _, m := range run.Mentions {
		if m.Sentiment != model.SentimentNegative && m.Sentiment != model.SentimentAnger {
			continue
		}
		text := m.Text
		if len(text) > 140 {
			text = text[:140] + "..."
		}
		examples = append(examples, fmt.Sprintf("- [%s] %s", m.Source, text))
		if len(examples) == 3 {
			break
		}
	}
	if len(examples) > 0 {
		sb.WriteString("\nTop negative mentions:\n")
		sb.WriteString(strings.Join(examples, "\n"))
	}
	return sb.String()
}
