package alert

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/flashnarrative/flashnarrative/pkg/config"
)

type emailClient struct {
	cfg config.EmailConfig
}

func newEmailClient(cfg config.EmailConfig) *emailClient {
	return &emailClient{cfg: cfg}
}

func (c *emailClient) Send(subject, body string) error {
	if c.cfg.Host == "" || c.cfg.User == "" || c.cfg.To == "" {
		return fmt.Errorf("email: not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.cfg.User)
	m.SetHeader("To", c.cfg.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(c.cfg.Host, c.cfg.Port, c.cfg.User, c.cfg.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("email: send failed: %w", err)
	}
	return nil
}
