package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const defaultFromName = "Luxury Leads AI"

// CategoryLead tags owner notifications so provider dashboards can filter them.
const CategoryLead = "lead-notification"

// EmailSender delivers one message. SendGrid, SES and the stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an owner notification. ReplyTo carries the visitor's
// address so the owner can answer straight from their inbox.
type EmailMessage struct {
	To       string
	ToName   string
	ReplyTo  string
	Subject  string
	Body     string
	HTML     string
	Category string
}

// From is the sender identity shared by every provider.
type From struct {
	Email string
	Name  string
}

func (f From) withDefaults() From {
	f.Email = strings.TrimSpace(f.Email)
	if strings.TrimSpace(f.Name) == "" {
		f.Name = defaultFromName
	}
	return f
}

func (f From) header() string {
	return fmt.Sprintf("%s <%s>", f.Name, f.Email)
}

// StubEmailSender logs instead of sending. It is the default when no provider
// is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("lead email not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return ctx.Err()
}
