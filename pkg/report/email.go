package report

import (
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"github.com/flashnarrative/flashnarrative/pkg/config"
)

// Attachment is one file to send with a report email.
type Attachment struct {
	Filename string
	Content  []byte
	MIMEType string
}

// SendEmail mails a report with attachments over SMTP.
func SendEmail(cfg config.EmailConfig, to, subject, body string, attachments []Attachment) error {
	if cfg.User == "" || cfg.Pass == "" || to == "" {
		return fmt.Errorf("email: missing smtp credentials or recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.User)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	for _, att := range attachments {
		content := att.Content
		m.Attach(att.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {att.MIMEType},
			}))
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	return d.DialAndSend(m)
}
