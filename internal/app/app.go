package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portfolio-server/internal/config"
	"github.com/vovakirdan/portfolio-server/internal/contact"
	"github.com/vovakirdan/portfolio-server/internal/feed"
	"github.com/vovakirdan/portfolio-server/internal/notify"
	"github.com/vovakirdan/portfolio-server/internal/store"
	"github.com/vovakirdan/portfolio-server/internal/store/file"
	"github.com/vovakirdan/portfolio-server/internal/store/memory"
	"github.com/vovakirdan/portfolio-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/portfolio-server/internal/transport/http"
)

// App wires together storage, notification and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *feed.Hub
	service         *contact.Service
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Int("retention", store.NormalizeRetention(cfg.Store.Retention)).
		Msg("submission store initialized")

	notifier, err := notify.New(cfg.Email)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	logger.Info().Str("provider", notifier.Provider()).Msg("email notifications configured")

	hub := feed.NewHub()
	svc := contact.NewService(st, notifier, logger,
		contact.WithPublisher(hub),
		contact.WithNotifyTimeout(cfg.Email.Timeout),
	)
	server := transporthttp.NewServer(svc, hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		service:         svc,
		store:           st,
		log:             logger,
	}, nil
}

// OpenStore opens the submission store selected by cfg.Backend.
func OpenStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", config.BackendFile:
		return file.New(cfg.Path, cfg.Retention)
	case config.BackendMemory:
		return memory.New(cfg.Retention), nil
	case config.BackendSQLite:
		return sqlite.New(cfg.Path, cfg.Retention)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Service exposes the contact service for one-shot commands.
func (a *App) Service() *contact.Service {
	return a.service
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close disconnects feed subscribers, waits for pending notifications and closes the store.
func (a *App) Close() {
	a.hub.Close()

	drainCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.service.Drain(drainCtx); err != nil {
		a.log.Warn().Err(err).Msg("pending notifications abandoned")
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
