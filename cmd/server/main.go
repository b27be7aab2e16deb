package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/portfolio-server/internal/app"
	"github.com/vovakirdan/portfolio-server/internal/config"
	applog "github.com/vovakirdan/portfolio-server/internal/log"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	serve := newServeCmd(opts)
	root := &cobra.Command{
		Use:          "portfolio-server",
		Short:        "Portfolio site backend: contact form intake, resume download and submission feed",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default config.yaml)")
	addServeFlags(root, opts)

	root.AddCommand(serve, newSubmissionsCmd(opts), newTestEmailCmd(opts))
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}

			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize application")
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting portfolio server")
			if err := application.Run(cmd.Context()); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	addServeFlags(cmd, opts)
	return cmd
}

func addServeFlags(cmd *cobra.Command, opts *rootOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&opts.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.Store.Backend, "store", "", "submission store backend (file, memory, sqlite)")
	flags.StringVar(&opts.overrides.Store.Path, "store-path", "", "submission store file or database path")
}

// loadConfig resolves configuration and builds the logger it asks for.
func loadConfig(opts *rootOptions) (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.New("info", "console")

	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Str("path", path).Msg("failed to load config")
		return cfg, bootLogger, err
	}
	cfg.UpdateFrom(opts.overrides)
	if err := cfg.Validate(); err != nil {
		bootLogger.Error().Err(err).Msg("invalid configuration")
		return cfg, bootLogger, err
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("path", path).Msg("configuration loaded")
	return cfg, logger, nil
}
