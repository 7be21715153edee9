// Package mail sends transactional email. SMTP is used when MAIL_HOST is
// set; otherwise messages are only logged, which keeps local development
// free of a mail server.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"sync"

	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/logger"
)

type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Render executes tmpl with data into the message body.
func (m *Message) Render(tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}
	m.HTML = buf.String()
	return nil
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}
	for _, to := range m.To {
		if strings.ContainsAny(to, "\r\n") {
			return fmt.Errorf("mail: invalid recipient %q", to)
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("mail: subject contains a line break")
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTP holds connection settings.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer delivers over SMTP, with implicit TLS on port 465 and
// STARTTLS elsewhere.
type SMTPMailer struct {
	cfg SMTP
}

func NewSMTPMailer(cfg SMTP) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	raw := buildRaw(s.cfg.From, m)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.Port != "465" {
		return smtp.SendMail(addr, auth, s.cfg.From, m.To, raw)
	}

	d := tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: tls dial: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit() //nolint:errcheck

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	for _, to := range m.To {
		if err := client.Rcpt(to); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func buildRaw(from string, m Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(m.HTML)
	return []byte(b.String())
}

// LogMailer writes each message to the log instead of sending it.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("mail: not sent (MAIL_HOST unset)", "to", m.To, "subject", m.Subject)
	return nil
}

// Outbox records messages in memory.
type Outbox struct {
	mu   sync.Mutex
	sent []Message
}

func (o *Outbox) Send(_ context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

func (o *Outbox) Sent() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.sent...)
}

var (
	defaultMu sync.RWMutex
	current   Mailer
)

// Default returns the configured mailer.
func Default() Mailer {
	defaultMu.RLock()
	m := current
	defaultMu.RUnlock()
	if m != nil {
		return m
	}
	if config.MailHost() == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(SMTP{
		Host:     config.MailHost(),
		Port:     config.MailPort(),
		Username: config.MailUsername(),
		Password: config.MailPassword(),
		From:     config.MailFrom(),
	})
}

// SetDefault overrides the mailer returned by Default. Pass nil to go
// back to configuration.
func SetDefault(m Mailer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	current = m
}
