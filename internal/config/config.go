// Package config loads server settings from the environment.
//
// A .env file in the working directory (or its parent) is read first when
// present; real environment variables always win.
package config

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at start-up.
type Config struct {
	ListenAddr  string
	DatabaseURL string // empty selects in-memory repositories
	RedisURL    string // empty disables limiter stats in Redis
	CORSOrigins []string
	// TrustedProxyCount is the number of reverse proxies in front of the
	// server that append to X-Forwarded-For. Zero uses RemoteAddr only.
	TrustedProxyCount int
	MaxBodyKB         int
	AdminSecret       string // empty disables the admin routes

	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	Resume    ResumeConfig
	External  ExternalConfig
}

// RateLimitConfig configures the contact submission limiter.
type RateLimitConfig struct {
	Max           int
	Window        time.Duration
	MaxKeys       int
	SweepInterval time.Duration
}

// SMTPConfig configures the notification email.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	SSL       bool // implicit TLS; STARTTLS otherwise
	Recipient string
}

// ResumeConfig locates the résumé file.
type ResumeConfig struct {
	Dir          string
	File         string
	DownloadName string
}

// ExternalConfig configures the third-party contact forwarder.
type ExternalConfig struct {
	URL     string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Load reads .env files and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join("..", ".env"))
	return load(osLookup)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	e := &env{lookup: lookup}

	cfg := &Config{
		ListenAddr:        e.String("LISTEN_ADDR", ":8080"),
		DatabaseURL:       e.String("DATABASE_URL", ""),
		RedisURL:          e.String("REDIS_URL", ""),
		CORSOrigins:       e.List("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		TrustedProxyCount: e.Int("TRUSTED_PROXY_COUNT", 0),
		MaxBodyKB:         e.Int("MAX_BODY_KB", 64),
		AdminSecret:       e.String("ADMIN_SECRET", ""),
		RateLimit: RateLimitConfig{
			Max:           e.Int("RATE_LIMIT_MAX", 5),
			Window:        e.Duration("RATE_LIMIT_WINDOW", time.Hour),
			MaxKeys:       e.Int("RATE_LIMIT_MAX_KEYS", 10000),
			SweepInterval: e.Duration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:      e.String("SMTP_HOST", "smtp.gmail.com"),
			Port:      e.Int("SMTP_PORT", 587),
			User:      e.String("SMTP_USER", ""),
			Password:  e.String("SMTP_PASSWORD", ""),
			SSL:       e.Bool("SMTP_SSL", false),
			Recipient: e.String("RECIPIENT_EMAIL", ""),
		},
		Resume: ResumeConfig{
			Dir:          e.String("RESUME_DIR", "./static/resume"),
			File:         e.String("RESUME_FILE", "resume.pdf"),
			DownloadName: e.String("RESUME_DOWNLOAD_NAME", "Resume.pdf"),
		},
		External: ExternalConfig{
			URL:     e.String("EXTERNAL_CONTACT_URL", ""),
			Timeout: e.Duration("EXTERNAL_CONTACT_TIMEOUT", 10*time.Second),
			RPS:     e.Float("EXTERNAL_CONTACT_RPS", 1),
			Burst:   e.Int("EXTERNAL_CONTACT_BURST", 5),
		},
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.RateLimit.Max < 1:
		return errors.New("config: RATE_LIMIT_MAX must be at least 1")
	case c.RateLimit.Window <= 0:
		return errors.New("config: RATE_LIMIT_WINDOW must be positive")
	case c.RateLimit.MaxKeys < 1:
		return errors.New("config: RATE_LIMIT_MAX_KEYS must be at least 1")
	case c.TrustedProxyCount < 0:
		return errors.New("config: TRUSTED_PROXY_COUNT must not be negative")
	case c.MaxBodyKB < 1:
		return errors.New("config: MAX_BODY_KB must be at least 1")
	case c.External.RPS <= 0:
		return errors.New("config: EXTERNAL_CONTACT_RPS must be positive")
	}
	return nil
}

// Configured reports whether credentials for sending mail are present.
func (c SMTPConfig) Configured() bool {
	return c.User != "" && c.Password != ""
}
