package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pulseboard/pulseboard/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Attachment struct {
	Filename string
	Content  []byte
}

// SendGrid delivers report mail through the SendGrid v3 API. Delivery
// failures are never fatal: attachments are written to FallbackDir so a
// generated report is not lost, and the error is returned for the caller
// to record.
type SendGrid struct {
	APIKey      string
	From        string
	FromName    string
	FallbackDir string
	Timeout     time.Duration
}

func (m *SendGrid) Send(ctx context.Context, recipients []string, subject, htmlBody string, attachments []Attachment) error {
	err := m.send(ctx, recipients, subject, htmlBody, attachments)
	if err != nil {
		m.saveFallback(attachments)
	}
	return err
}

func (m *SendGrid) send(ctx context.Context, recipients []string, subject, htmlBody string, attachments []Attachment) error {
	if m.APIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not set")
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(m.FromName, m.From))
	message.Subject = subject
	message.AddContent(mail.NewContent("text/html", htmlBody))

	p := mail.NewPersonalization()
	for _, r := range recipients {
		p.AddTos(mail.NewEmail("", r))
	}
	message.AddPersonalizations(p)

	for _, att := range attachments {
		a := mail.NewAttachment()
		a.SetFilename(att.Filename)
		a.SetType("application/pdf")
		a.SetDisposition("attachment")
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		message.AddAttachment(a)
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	client := sendgrid.NewSendClient(m.APIKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", response.StatusCode, response.Body)
	}

	log.Debugf("mail.sent: %d recipients, status %d", len(recipients), response.StatusCode)
	return nil
}

// saveFallback persists attachments locally so an undeliverable report
// survives until an operator retrieves it.
func (m *SendGrid) saveFallback(attachments []Attachment) {
	if m.FallbackDir == "" || len(attachments) == 0 {
		return
	}
	if err := os.MkdirAll(m.FallbackDir, 0o755); err != nil {
		log.Errorf("mail.fallback.mkdir: %s", err)
		return
	}
	for _, att := range attachments {
		path := filepath.Join(m.FallbackDir, att.Filename)
		if err := os.WriteFile(path, att.Content, 0o644); err != nil {
			log.Errorf("mail.fallback.write: %s", err)
			continue
		}
		log.Warnf("mail.fallback.saved: %s", path)
	}
}
