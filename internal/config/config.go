package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	StripeSecretKey    string
	LiveWebhookSecret  string
	LocalWebhookSecret string
	Emulated           bool
	ClearingPeriod     time.Duration
	TxMaxAttempts      int
	MailAPIURL         string
	MailAPIKey         string
	MailFrom           string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	WorkerPoolSize     int
	ShutdownTimeout    time.Duration
	LogLevel           slog.Level
}

const (
	defaultRunAddress         = ":8080"
	defaultClearingPeriod     = 14 * 24 * time.Hour
	defaultTxMaxAttempts      = 5
	defaultMailAPIURL         = "https://api.useplunk.com/v1/send"
	defaultOutboxPollInterval = 5 * time.Second
	defaultOutboxBatchSize    = 16
	defaultOutboxMaxAttempts  = 5
	defaultWorkerPoolSize     = 2
	defaultShutdownTimeout    = 10 * time.Second
)

// WebhookSecret returns the signing secret matching the runtime environment.
func (c *Config) WebhookSecret() string {
	if c.Emulated {
		return c.LocalWebhookSecret
	}
	return c.LiveWebhookSecret
}

// MailEnabled reports whether outgoing email is configured.
func (c *Config) MailEnabled() bool {
	return c.MailAPIKey != ""
}

// Load parses configuration from an optional .env file, environment variables and flags.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		StripeSecretKey:    getString(lookup, "STRIPE_SECRET_KEY", ""),
		LiveWebhookSecret:  getString(lookup, "STRIPE_WEBHOOK_SECRET", ""),
		LocalWebhookSecret: getString(lookup, "STRIPE_WEBHOOK_SECRET_LOCAL", ""),
		Emulated:           getBool(lookup, "FUNCTIONS_EMULATOR", false),
		ClearingPeriod:     getDuration(lookup, "CLEARING_PERIOD", defaultClearingPeriod),
		TxMaxAttempts:      getInt(lookup, "TX_MAX_ATTEMPTS", defaultTxMaxAttempts),
		MailAPIURL:         getString(lookup, "MAIL_API_URL", defaultMailAPIURL),
		MailAPIKey:         getString(lookup, "MAIL_API_KEY", ""),
		MailFrom:           getString(lookup, "MAIL_FROM", ""),
		OutboxPollInterval: getDuration(lookup, "OUTBOX_POLL_INTERVAL", defaultOutboxPollInterval),
		OutboxBatchSize:    getInt(lookup, "OUTBOX_BATCH_SIZE", defaultOutboxBatchSize),
		OutboxMaxAttempts:  getInt(lookup, "OUTBOX_MAX_ATTEMPTS", defaultOutboxMaxAttempts),
		WorkerPoolSize:     getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("tasko-webhooks", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		clearingStr     = cfg.ClearingPeriod.String()
		pollIntervalStr = cfg.OutboxPollInterval.String()
		shutdownStr     = cfg.ShutdownTimeout.String()
		logLevelStr     = getString(lookup, "LOG_LEVEL", "info")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.StripeSecretKey, "stripe-key", cfg.StripeSecretKey, "Stripe API secret key")
	fs.StringVar(&cfg.LiveWebhookSecret, "webhook-secret", cfg.LiveWebhookSecret, "Stripe webhook signing secret")
	fs.BoolVar(&cfg.Emulated, "emulated", cfg.Emulated, "Use the local webhook secret")
	fs.StringVar(&clearingStr, "clearing-period", clearingStr, "Clearing period after payment")
	fs.IntVar(&cfg.TxMaxAttempts, "tx-attempts", cfg.TxMaxAttempts, "Attempts for conflicting transactions")
	fs.StringVar(&pollIntervalStr, "outbox-poll", pollIntervalStr, "Interval between outbox polls")
	fs.IntVar(&cfg.OutboxBatchSize, "outbox-batch", cfg.OutboxBatchSize, "Maximum notifications per poll")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent mail senders")
	fs.StringVar(&shutdownStr, "shutdown-timeout", shutdownStr, "Graceful shutdown timeout")
	fs.StringVar(&logLevelStr, "log-level", logLevelStr, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ClearingPeriod, err = time.ParseDuration(clearingStr); err != nil {
		return nil, fmt.Errorf("invalid clearing period: %w", err)
	}

	if cfg.OutboxPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid outbox poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(logLevelStr))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	secretFiles := []struct {
		env    string
		target *string
	}{
		{"STRIPE_SECRET_KEY_FILE", &cfg.StripeSecretKey},
		{"STRIPE_WEBHOOK_SECRET_FILE", &cfg.LiveWebhookSecret},
		{"MAIL_API_KEY_FILE", &cfg.MailAPIKey},
	}
	for _, sf := range secretFiles {
		path, ok := lookup(sf.env)
		if !ok || path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", strings.ToLower(sf.env), err)
		}
		*sf.target = strings.TrimSpace(string(content))
	}

	if cfg.ClearingPeriod <= 0 {
		cfg.ClearingPeriod = defaultClearingPeriod
	}

	if cfg.TxMaxAttempts <= 0 {
		cfg.TxMaxAttempts = defaultTxMaxAttempts
	}

	if cfg.OutboxPollInterval <= 0 {
		cfg.OutboxPollInterval = defaultOutboxPollInterval
	}

	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = defaultOutboxBatchSize
	}

	if cfg.OutboxMaxAttempts <= 0 {
		cfg.OutboxMaxAttempts = defaultOutboxMaxAttempts
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("stripe secret key must be provided")
	}

	if cfg.WebhookSecret() == "" {
		if cfg.Emulated {
			return nil, fmt.Errorf("local webhook secret must be provided when running emulated")
		}
		return nil, fmt.Errorf("webhook secret must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
