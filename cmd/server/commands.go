package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/portfolio-server/internal/app"
	"github.com/vovakirdan/portfolio-server/internal/contact"
	"github.com/vovakirdan/portfolio-server/internal/notify"
)

// commandTimeout bounds one-shot commands that talk to the store or mail provider.
const commandTimeout = 30 * time.Second

func newSubmissionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submissions",
		Short: "Print stored contact submissions as JSON, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cfg.Store)
			if err != nil {
				logger.Error().Err(err).Msg("failed to open store")
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			svc := contact.NewService(st, nil, logger)
			subs, err := svc.List(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to read submissions")
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(subs)
		},
	}
}

func newTestEmailCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-email",
		Short: "Verify email delivery by sending a test message to the configured sender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}

			notifier, err := notify.New(cfg.Email)
			if err != nil {
				logger.Error().Err(err).Msg("failed to configure email")
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			receipt, err := notifier.SendTest(ctx)
			if err != nil {
				logger.Error().Err(err).Str("provider", notifier.Provider()).Msg("email test failed")
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "test email sent via %s from %s at %s\n",
				receipt.Provider, receipt.From, receipt.SentAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}
