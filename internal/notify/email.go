// Package notify delivers contact submissions to the site owner.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/model"
)

// Notifier sends a submission to the site owner. It reports whether the
// message was handed to the mail server; it never returns an error because
// callers only use the outcome to word their response.
type Notifier interface {
	Send(ctx context.Context, sub *model.ContactSubmission) bool
}

// SendFunc hands a composed email to the SMTP server.
type SendFunc func(cfg config.SMTPConfig, e *email.Email) error

// EmailNotifier sends HTML notifications over SMTP.
type EmailNotifier struct {
	cfg     config.SMTPConfig
	send    SendFunc
	timeout time.Duration
}

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithSendFunc replaces the SMTP transport, mainly for tests.
func WithSendFunc(fn SendFunc) EmailOption {
	return func(n *EmailNotifier) { n.send = fn }
}

// WithTimeout bounds how long Send waits for the SMTP exchange.
func WithTimeout(d time.Duration) EmailOption {
	return func(n *EmailNotifier) { n.timeout = d }
}

// NewEmailNotifier creates an EmailNotifier. When cfg.Recipient is empty the
// notification goes to the SMTP user.
func NewEmailNotifier(cfg config.SMTPConfig, opts ...EmailOption) *EmailNotifier {
	if cfg.Recipient == "" {
		cfg.Recipient = cfg.User
	}
	n := &EmailNotifier{
		cfg:     cfg,
		send:    smtpSend,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ Notifier = (*EmailNotifier)(nil)

// Send composes and sends the notification for sub.
func (n *EmailNotifier) Send(ctx context.Context, sub *model.ContactSubmission) bool {
	log := logging.FromContext(ctx)

	if !n.cfg.Configured() {
		log.Warn("SMTP credentials not configured, email not sent")
		return false
	}

	e, err := n.compose(sub)
	if err != nil {
		log.Error("compose contact email failed", "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.send(n.cfg, e) }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("send contact email failed", "error", err)
			return false
		}
	case <-ctx.Done():
		log.Error("send contact email timed out", "error", ctx.Err())
		return false
	}

	log.Info("contact email sent", "submission_id", sub.ID)
	return true
}

func (n *EmailNotifier) compose(sub *model.ContactSubmission) (*email.Email, error) {
	var html bytes.Buffer
	if err := contactHTML.Execute(&html, sub); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	e := email.NewEmail()
	e.From = n.cfg.User
	e.To = []string{n.cfg.Recipient}
	e.ReplyTo = []string{(&mail.Address{Name: sub.Name, Address: sub.Email}).String()}
	e.Subject = "Portfolio Contact: " + sub.Subject
	e.Text = []byte(fmt.Sprintf("From: %s <%s>\nSubject: %s\n\n%s\n", sub.Name, sub.Email, sub.Subject, sub.Message))
	e.HTML = html.Bytes()
	return e, nil
}

func smtpSend(cfg config.SMTPConfig, e *email.Email) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	if cfg.SSL {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	return e.SendWithStartTLS(addr, auth, tlsConfig)
}

var contactHTML = template.Must(template.New("contact").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #0f172a; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
.content { background: #f8f9fa; padding: 20px; border: 1px solid #e0e0e0; }
.label { font-weight: bold; color: #f59e0b; }
.value { margin: 5px 0 15px; padding: 10px; background: white; border-left: 4px solid #f59e0b; }
.footer { background: #0f172a; color: #94a3b8; padding: 15px; text-align: center; border-radius: 0 0 8px 8px; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h2 style="margin: 0;">New Contact Form Submission</h2></div>
  <div class="content">
    <div class="label">From:</div><div class="value">{{.Name}}</div>
    <div class="label">Email:</div><div class="value">{{.Email}}</div>
    <div class="label">Subject:</div><div class="value">{{.Subject}}</div>
    <div class="label">Message:</div><div class="value" style="white-space: pre-wrap;">{{.Message}}</div>
  </div>
  <div class="footer"><p>This email was sent from your portfolio contact form</p></div>
</div>
</body>
</html>
`))

// Noop is a Notifier that never sends and always reports failure.
type Noop struct{}

func (Noop) Send(context.Context, *model.ContactSubmission) bool { return false }
