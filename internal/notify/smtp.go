package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/vovakirdan/portfolio-server/internal/config"
	"github.com/vovakirdan/portfolio-server/internal/store"
)

// SMTPNotifier sends notices through an authenticated SMTP relay.
type SMTPNotifier struct {
	cfg  config.EmailConfig
	from string
	to   []string
	now  func() time.Time

	// tlsPolicy applies to every port except 465, which always uses implicit TLS.
	tlsPolicy mail.TLSPolicy
}

// NewSMTPNotifier validates cfg and returns an SMTP-backed notifier.
func NewSMTPNotifier(cfg config.EmailConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("smtp: port is required")
	}
	return &SMTPNotifier{
		cfg:  cfg,
		from: sender(cfg),
		to:   recipients(cfg),
		now:  time.Now,

		tlsPolicy: mail.TLSMandatory,
	}, nil
}

// Provider returns "smtp".
func (n *SMTPNotifier) Provider() string {
	return ProviderSMTP
}

// Notify emails the configured recipients about sub. Replies go to the submitter.
func (n *SMTPNotifier) Notify(ctx context.Context, sub store.Submission) (Receipt, error) {
	body, err := RenderSubmission(sub)
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: err}
	}
	return n.send(ctx, n.to, SubmissionSubject(sub), body, sub.Email)
}

// SendTest dials the relay to verify credentials, then mails the sender address.
func (n *SMTPNotifier) SendTest(ctx context.Context) (Receipt, error) {
	client, err := n.client()
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: err}
	}
	if err := client.DialWithContext(ctx); err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: fmt.Errorf("verify connection: %w", err)}
	}
	_ = client.Close()

	body, err := RenderTest(n.from, n.now())
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: err}
	}
	return n.send(ctx, []string{n.from}, testSubject, body, "")
}

func (n *SMTPNotifier) send(ctx context.Context, to []string, subject, body, replyTo string) (Receipt, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: fmt.Errorf("from address: %w", err)}
	}
	if err := msg.To(to...); err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: fmt.Errorf("to address: %w", err)}
	}
	if replyTo != "" {
		// An invalid submitter address must not block the notice.
		_ = msg.ReplyTo(replyTo)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := n.client()
	if err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: err}
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Receipt{}, &Error{Provider: ProviderSMTP, Err: fmt.Errorf("send: %w", err)}
	}

	return Receipt{
		Provider: ProviderSMTP,
		From:     n.from,
		To:       to,
		SentAt:   n.now(),
	}, nil
}

// client builds a fresh connection config per message; go-mail clients hold one connection.
func (n *SMTPNotifier) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	}
	if n.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(n.tlsPolicy))
	}
	if n.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(n.cfg.Timeout))
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}
