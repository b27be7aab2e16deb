package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "PORTFOLIO"
	envConfigDefaultPath = "PORTFOLIO_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// dotenvFiles are loaded, when present, before env vars are read.
// Earlier files win; variables already set in the process are never overridden.
var dotenvFiles = []string{".env.local", ".env"}

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	loadDotenv(logger)

	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Variable names used by earlier deployments of the site.
	_ = v.BindEnv("email.username", envPrefix+"_EMAIL_USERNAME", "EMAIL_USER")
	_ = v.BindEnv("email.password", envPrefix+"_EMAIL_PASSWORD", "EMAIL_PASS")

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, configPath, err
	}

	return cfg, configPath, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for %s backend", c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.ContactRateLimit < 0 {
		return errors.New("contact_rate_limit must not be negative")
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("trusted_proxies: %q is neither an IP nor a CIDR", proxy)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("contact_rate_limit", cfg.ContactRateLimit)
	v.SetDefault("ws_origins", cfg.WSOrigins)
	v.SetDefault("trusted_proxies", cfg.TrustedProxies)

	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.retention", cfg.Store.Retention)

	v.SetDefault("email.provider", cfg.Email.Provider)
	v.SetDefault("email.host", cfg.Email.Host)
	v.SetDefault("email.port", cfg.Email.Port)
	v.SetDefault("email.username", cfg.Email.Username)
	v.SetDefault("email.password", cfg.Email.Password)
	v.SetDefault("email.from", cfg.Email.From)
	v.SetDefault("email.to", cfg.Email.To)
	v.SetDefault("email.resend_api_key", cfg.Email.ResendAPIKey)
	v.SetDefault("email.timeout", cfg.Email.Timeout)

	v.SetDefault("resume.path", cfg.Resume.Path)
	v.SetDefault("resume.filename", cfg.Resume.Filename)
}

func loadDotenv(logger *zerolog.Logger) {
	for _, name := range dotenvFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			if logger != nil {
				logger.Warn().Err(err).Str("file", name).Msg("failed to load env file")
			}
			continue
		}
		if logger != nil {
			logger.Debug().Str("file", name).Msg("loaded env file")
		}
	}
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
