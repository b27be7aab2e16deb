package notify

import (
	"context"
	"errors"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/vovakirdan/portfolio-server/internal/config"
	"github.com/vovakirdan/portfolio-server/internal/store"
)

// ResendNotifier sends notices via the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     []string
	now    func() time.Time
}

// NewResendNotifier creates a notifier using cfg.ResendAPIKey.
func NewResendNotifier(cfg config.EmailConfig) (*ResendNotifier, error) {
	if cfg.ResendAPIKey == "" {
		return nil, errors.New("resend: api key is required")
	}
	from := sender(cfg)
	if from == "" {
		return nil, errors.New("resend: from address is required")
	}
	return &ResendNotifier{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   from,
		to:     recipients(cfg),
		now:    time.Now,
	}, nil
}

// Provider returns "resend".
func (n *ResendNotifier) Provider() string {
	return ProviderResend
}

// Notify emails the configured recipients about sub.
func (n *ResendNotifier) Notify(ctx context.Context, sub store.Submission) (Receipt, error) {
	body, err := RenderSubmission(sub)
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderResend, Err: err}
	}
	return n.send(ctx, n.to, SubmissionSubject(sub), body, sub.Email)
}

// SendTest mails the sender address. Resend has no separate connection check.
func (n *ResendNotifier) SendTest(ctx context.Context) (Receipt, error) {
	body, err := RenderTest(n.from, n.now())
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderResend, Err: err}
	}
	return n.send(ctx, []string{n.from}, testSubject, body, "")
}

func (n *ResendNotifier) send(ctx context.Context, to []string, subject, body, replyTo string) (Receipt, error) {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      to,
		Subject: subject,
		Html:    body,
	}
	if replyTo != "" {
		params.ReplyTo = replyTo
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderResend, Err: err}
	}

	return Receipt{
		Provider:  ProviderResend,
		From:      n.from,
		To:        to,
		MessageID: sent.Id,
		SentAt:    n.now(),
	}, nil
}
