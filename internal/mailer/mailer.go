// Package mailer delivers verification codes, either directly or through
// an asynq queue backed by redis.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lexiq-backend/pkg/logging"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer is what the profile service needs.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

func verificationMessage(code string, ttlMinutes int) (string, string) {
	subject := "Your email verification code"
	body := fmt.Sprintf("Your verification code is %s.\r\n\r\nIt expires in %d minutes. If you did not request it, ignore this email.\r\n", code, ttlMinutes)
	return subject, body
}

// DirectMailer sends synchronously through a Sender.
type DirectMailer struct {
	sender     Sender
	ttlMinutes int
}

func NewDirectMailer(sender Sender, ttlMinutes int) *DirectMailer {
	return &DirectMailer{sender: sender, ttlMinutes: ttlMinutes}
}

func (m *DirectMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	subject, body := verificationMessage(code, m.ttlMinutes)
	return m.sender.Send(ctx, to, subject, body)
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	logger.Info("mail to=%s subject=%q body=%q", to, subject, strings.TrimSpace(body))
	return nil
}

// Message is a captured outgoing mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// MemorySender records messages, for tests and local runs.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
}

func (s *MemorySender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}
