package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tilvo/tasko/internal/domain/repository"
)

const (
	defaultTxMaxAttempts = 5
	retryBackoff         = 20 * time.Millisecond
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool          pgxPool
	logger        *slog.Logger
	txMaxAttempts int
}

// Option customizes Storage.
type Option func(*Storage)

// WithTxMaxAttempts bounds how often a serializable transaction is replayed after a conflict.
func WithTxMaxAttempts(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.txMaxAttempts = n
		}
	}
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type notificationRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger, txMaxAttempts: defaultTxMaxAttempts}
	for _, opt := range opts {
		opt(storage)
	}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Notifications() repository.NotificationRepository {
	return &notificationRepository{storage: s}
}

var _ repository.Factory = (*Storage)(nil)

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL DEFAULT '',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            street TEXT NOT NULL DEFAULT '',
            postal_code TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            stripe_account_id TEXT,
            stripe_customer_id TEXT,
            charges_enabled BOOLEAN NOT NULL DEFAULT FALSE,
            payouts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
            details_submitted BOOLEAN NOT NULL DEFAULT FALSE,
            stripe_account_updated_at TIMESTAMPTZ,
            addresses JSONB NOT NULL DEFAULT '[]',
            payment_methods JSONB NOT NULL DEFAULT '[]',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS temporary_job_drafts (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT '',
            subcategory TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            street TEXT NOT NULL DEFAULT '',
            postal_code TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            preferred_date TEXT NOT NULL DEFAULT '',
            time_preference TEXT NOT NULL DEFAULT '',
            provider_id TEXT NOT NULL DEFAULT '',
            price_in_cents BIGINT NOT NULL DEFAULT 0,
            provider_stripe_account_id TEXT NOT NULL DEFAULT '',
            details JSONB NOT NULL DEFAULT '{}',
            status TEXT NOT NULL DEFAULT 'pending_payment_setup',
            converted_to_order_id TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            draft_id TEXT UNIQUE NOT NULL REFERENCES temporary_job_drafts(id),
            customer_id TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT '',
            subcategory TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            street TEXT NOT NULL DEFAULT '',
            postal_code TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            preferred_date TEXT NOT NULL DEFAULT '',
            time_preference TEXT NOT NULL DEFAULT '',
            provider_id TEXT NOT NULL DEFAULT '',
            price_in_cents BIGINT NOT NULL DEFAULT 0,
            provider_stripe_account_id TEXT NOT NULL DEFAULT '',
            details JSONB NOT NULL DEFAULT '{}',
            payment_intent_id TEXT NOT NULL,
            currency TEXT NOT NULL DEFAULT '',
            amount_paid_in_cents BIGINT NOT NULL,
            payment_method_id TEXT NOT NULL DEFAULT '',
            stripe_customer_id TEXT NOT NULL DEFAULT '',
            original_price_in_cents BIGINT NOT NULL DEFAULT 0,
            buyer_service_fee_in_cents BIGINT NOT NULL DEFAULT 0,
            seller_commission_in_cents BIGINT NOT NULL DEFAULT 0,
            total_platform_fee_in_cents BIGINT NOT NULL DEFAULT 0,
            status TEXT NOT NULL,
            paid_at TIMESTAMPTZ NOT NULL,
            clearing_period_ends_at TIMESTAMPTZ NOT NULL,
            buyer_approved_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            recipient TEXT NOT NULL,
            subject TEXT NOT NULL,
            body TEXT NOT NULL,
            status TEXT NOT NULL,
            attempts INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            sent_at TIMESTAMPTZ
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_stripe_account ON users(stripe_account_id) WHERE stripe_account_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	return s.withinTx(ctx, pgx.TxOptions{}, fn)
}

// WithinSerializable runs fn in a serializable transaction and replays it
// while PostgreSQL reports a serialization failure or deadlock.
func (s *Storage) WithinSerializable(ctx context.Context, fn func(pgx.Tx) error) error {
	attempts := s.txMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := s.withinTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
		if err == nil || !isRetryable(err) || attempt >= attempts {
			return err
		}

		s.logger.WarnContext(ctx, "retrying conflicting transaction",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}

func (s *Storage) withinTx(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// jsonb encodes v for a JSONB column. Nil slices and maps are written as empty
// containers so NOT NULL columns never receive SQL NULL.
func jsonb[T any](v T, empty string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return []byte(empty), nil
	}
	return data, nil
}

func decodeJSONB[T any](data []byte, dst *T) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
