// Package mail provides outbound email for the clinic: an SMTP sender
// behind a small interface, a template engine for the transactional
// messages (booking confirmation, password reset, cancellation notices),
// and a mock sender for tests.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"sync"
)

// Sender is the interface for sending email messages.
type Sender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPConfig holds relay settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

// SMTPSender delivers mail through a configured SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send builds an HTML message and hands it to the relay. STARTTLS is
// negotiated by net/smtp when the server offers it.
func (s *SMTPSender) Send(_ context.Context, to []string, subject, body string) error {
	if len(to) == 0 || to[0] == "" {
		return fmt.Errorf("empty recipient")
	}
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if s.cfg.FromAddr == "" {
		return fmt.Errorf("smtp sender address not configured")
	}

	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, port)

	from := s.cfg.FromAddr
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddr)
	}

	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to[0] + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)

	return smtp.SendMail(addr, s.auth(), s.cfg.FromAddr, to, buf.Bytes())
}

// auth returns nil when no user is configured (e.g. MailHog), so no AUTH
// is sent.
func (s *SMTPSender) auth() smtp.Auth {
	if s.cfg.User != "" {
		return smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	return nil
}

// SentMail records a single call to a MockSender.
type SentMail struct {
	To      []string
	Subject string
	Body    string
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu         sync.Mutex
	sent       []SentMail
	ShouldFail bool
}

func (m *MockSender) Send(_ context.Context, to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("mock send failure")
	}
	return nil
}

// Sent returns a copy of recorded calls.
func (m *MockSender) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}
