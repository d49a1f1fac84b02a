package email

import (
	"context"
	"errors"
)

// Sender verschickt fertige Berichte an externe Empfänger.
type Sender interface {
	SendReport(ctx context.Context, toEmail, subject, body string) error
}

// DisabledSender wird verdrahtet, wenn kein SMTP konfiguriert ist.
type DisabledSender struct {
	reason string
}

func NewDisabledSender(reason string) *DisabledSender {
	return &DisabledSender{reason: reason}
}

func (s *DisabledSender) SendReport(context.Context, string, string, string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
