package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/portfolio-server/internal/config"
	"github.com/vovakirdan/portfolio-server/internal/store"
)

// Provider names accepted in email.provider.
const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
	ProviderNone   = "none"
)

// ErrNotConfigured is returned when no email transport has credentials.
var ErrNotConfigured = errors.New("email credentials not configured")

// Error tags a delivery failure with the provider that produced it.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s notification: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Receipt describes a delivered email.
type Receipt struct {
	Provider  string    `json:"provider"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	MessageID string    `json:"messageId,omitempty"`
	SentAt    time.Time `json:"timestamp"`
}

// Notifier delivers out-of-band notices about contact submissions.
type Notifier interface {
	// Notify sends a notice for a freshly stored submission.
	Notify(ctx context.Context, sub store.Submission) (Receipt, error)

	// SendTest checks the transport and sends a test message to the sender address.
	SendTest(ctx context.Context) (Receipt, error)

	// Provider names the transport.
	Provider() string
}

// New selects a Notifier from configuration.
// With no explicit provider, a Resend API key wins over SMTP credentials;
// with neither, a Noop notifier is returned.
func New(cfg config.EmailConfig) (Notifier, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		switch {
		case cfg.ResendAPIKey != "":
			provider = ProviderResend
		case cfg.Username != "" && cfg.Password != "":
			provider = ProviderSMTP
		default:
			provider = ProviderNone
		}
	}

	switch provider {
	case ProviderSMTP:
		if cfg.Username == "" || cfg.Password == "" {
			return Noop{}, nil
		}
		return NewSMTPNotifier(cfg)
	case ProviderResend:
		if cfg.ResendAPIKey == "" {
			return Noop{}, nil
		}
		return NewResendNotifier(cfg)
	case ProviderNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// Noop is used when email delivery is not configured.
type Noop struct{}

// Notify reports ErrNotConfigured without doing anything.
func (Noop) Notify(context.Context, store.Submission) (Receipt, error) {
	return Receipt{}, ErrNotConfigured
}

// SendTest reports ErrNotConfigured.
func (Noop) SendTest(context.Context) (Receipt, error) {
	return Receipt{}, ErrNotConfigured
}

// Provider returns "none".
func (Noop) Provider() string {
	return ProviderNone
}

// recipients falls back to the sender when no explicit recipient is set.
func recipients(cfg config.EmailConfig) []string {
	if len(cfg.To) > 0 {
		return cfg.To
	}
	if cfg.From != "" {
		return []string{cfg.From}
	}
	return []string{cfg.Username}
}

func sender(cfg config.EmailConfig) string {
	if cfg.From != "" {
		return cfg.From
	}
	return cfg.Username
}
