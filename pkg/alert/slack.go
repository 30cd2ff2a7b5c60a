package alert

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/flashnarrative/flashnarrative/pkg/config"
)

type slackClient struct {
	api     *slack.Client
	channel string
}

func newSlackClient(cfg config.SlackConfig) *slackClient {
	c := &slackClient{channel: cfg.Channel}
	if cfg.Token != "" {
		c.api = slack.New(cfg.Token)
	}
	return c
}

func (c *slackClient) Send(ctx context.Context, message string) error {
	if c.api == nil || c.channel == "" {
		return fmt.Errorf("slack: not configured")
	}
	_, _, err := c.api.PostMessageContext(ctx, c.channel,
		slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("slack: post to %s failed: %w", c.channel, err)
	}
	return nil
}
