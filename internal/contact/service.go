package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portfolio-server/internal/notify"
	"github.com/vovakirdan/portfolio-server/internal/store"
)

// UnknownIP is recorded when the client address cannot be derived.
const UnknownIP = "unknown"

const defaultNotifyTimeout = 30 * time.Second

// ValidationError is returned when required fields are missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Request is an inbound contact form submission.
type Request struct {
	Name      string
	Email     string
	Message   string
	IPAddress string
}

// Validate checks that name, email and message are present.
func (r Request) Validate() error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Email == "" {
		missing = append(missing, "email")
	}
	if r.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Publisher receives every stored submission, e.g. the live feed hub.
type Publisher interface {
	Publish(sub store.Submission) int
}

// Service validates contact submissions, stores them and fires notifications.
type Service struct {
	store         store.Store
	notifier      notify.Notifier
	publisher     Publisher
	log           *zerolog.Logger
	notifyTimeout time.Duration

	wg sync.WaitGroup
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher forwards stored submissions to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNotifyTimeout bounds each notification attempt.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// NewService creates a contact service. A nil notifier disables email.
func NewService(st store.Store, notifier notify.Notifier, logger *zerolog.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	s := &Service{
		store:         st,
		notifier:      notifier,
		log:           logger,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates req, appends it to the store and schedules notifications.
// Notification failures never affect the result.
func (s *Service) Submit(ctx context.Context, req Request) (store.Submission, error) {
	if err := req.Validate(); err != nil {
		return store.Submission{}, err
	}

	ip := strings.TrimSpace(req.IPAddress)
	if ip == "" {
		ip = UnknownIP
	}

	sub, err := s.store.Append(ctx, store.Input{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		IPAddress: ip,
	})
	if err != nil {
		return store.Submission{}, fmt.Errorf("append submission: %w", err)
	}

	s.log.Info().
		Str("id", sub.ID).
		Str("name", sub.Name).
		Str("email", sub.Email).
		Str("ip", sub.IPAddress).
		Str("timestamp", sub.Timestamp).
		Str("message", sub.Message).
		Msg("new contact submission")

	if s.publisher != nil {
		s.publisher.Publish(sub)
	}
	s.notify(ctx, sub)

	return sub, nil
}

// List returns all stored submissions, oldest first.
func (s *Service) List(ctx context.Context) ([]store.Submission, error) {
	subs, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	return subs, nil
}

// SendTestEmail verifies the email transport by mailing the sender address.
func (s *Service) SendTestEmail(ctx context.Context) (notify.Receipt, error) {
	s.log.Info().Str("provider", s.notifier.Provider()).Msg("testing email configuration")
	receipt, err := s.notifier.SendTest(ctx)
	if err != nil {
		return notify.Receipt{}, err
	}
	s.log.Info().Str("provider", receipt.Provider).Str("from", receipt.From).Msg("test email sent")
	return receipt, nil
}

// Drain waits for in-flight notifications or until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify delivers the email notice in the background.
// The request context is detached so the notice outlives the HTTP response.
func (s *Service) notify(ctx context.Context, sub store.Submission) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Str("id", sub.ID).Msg("email notification panicked")
			}
		}()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		receipt, err := s.notifier.Notify(nctx, sub)
		switch {
		case errors.Is(err, notify.ErrNotConfigured):
			s.log.Info().Str("id", sub.ID).Msg("email credentials not configured, skipping notification")
		case err != nil:
			s.log.Error().Err(err).Str("id", sub.ID).Str("provider", s.notifier.Provider()).Msg("email notification failed")
		default:
			s.log.Info().
				Str("id", sub.ID).
				Str("provider", receipt.Provider).
				Str("message_id", receipt.MessageID).
				Msg("email notification sent")
		}
	}()
}
