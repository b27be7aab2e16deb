package config

import "time"

// Store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// ContactRateLimit caps contact form posts per client per minute; 0 disables it.
	ContactRateLimit int `mapstructure:"contact_rate_limit" yaml:"contact_rate_limit"`
	// WSOrigins lists host patterns allowed to open the submissions feed.
	WSOrigins []string `mapstructure:"ws_origins" yaml:"ws_origins"`
	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers identify
	// the client for rate limiting. Empty trusts no one.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`

	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Email  EmailConfig  `mapstructure:"email" yaml:"email"`
	Resume ResumeConfig `mapstructure:"resume" yaml:"resume"`
}

// StoreConfig selects and configures the submission store.
type StoreConfig struct {
	Backend   string `mapstructure:"backend" yaml:"backend"` // file | memory | sqlite
	Path      string `mapstructure:"path" yaml:"path"`
	Retention int    `mapstructure:"retention" yaml:"retention"`
}

// EmailConfig configures outbound notification email.
type EmailConfig struct {
	Provider     string        `mapstructure:"provider" yaml:"provider"` // smtp | resend | none, empty picks from credentials
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	Username     string        `mapstructure:"username" yaml:"username"`
	Password     string        `mapstructure:"password" yaml:"password"`
	From         string        `mapstructure:"from" yaml:"from"`
	To           []string      `mapstructure:"to" yaml:"to"`
	ResendAPIKey string        `mapstructure:"resend_api_key" yaml:"resend_api_key"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ResumeConfig points at the downloadable resume.
type ResumeConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	Filename string `mapstructure:"filename" yaml:"filename"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		ContactRateLimit:  10,
		Store: StoreConfig{
			Backend:   BackendFile,
			Path:      "data/contact-submissions.json",
			Retention: 100,
		},
		Email: EmailConfig{
			Host:    "smtp.gmail.com",
			Port:    587,
			Timeout: 15 * time.Second,
		},
		Resume: ResumeConfig{
			Path:     "public/resume.pdf",
			Filename: "resume.pdf",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the fields exposed as command-line flags are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
}
