package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/alumnet/modguard/internal/storage/migrations"
	"github.com/alumnet/modguard/pkg/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunotel"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// kvEntry is one row of the moderation_kv table.
type kvEntry struct {
	bun.BaseModel `bun:"table:moderation_kv,alias:kv"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,type:bytea,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PostgresStore keeps blobs in the moderation_kv table.
type PostgresStore struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPostgresStore connects to PostgreSQL and applies pending migrations.
func NewPostgresStore(ctx context.Context, cfg *config.PostgreSQL, logger *zap.Logger) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.DBName),
		pgdriver.WithInsecure(true),
		pgdriver.WithApplicationName("modguard"),
	))

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)
	sqldb.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Minute)

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(&queryHook{logger: logger.Named("postgres_store")})
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.DBName)))

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if !group.IsZero() {
		logger.Info("Applied store migrations", zap.String("group", group.String()))
	}

	return &PostgresStore{
		db:     db,
		logger: logger.Named("postgres_store"),
	}, nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	entry, err := withDBRetry(ctx, func() (*kvEntry, error) {
		var entry kvEntry

		err := s.db.NewSelect().
			Model(&entry).
			Where("key = ?", key).
			Scan(ctx)
		if err != nil {
			return nil, err
		}

		return &entry, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	return entry.Value, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	entry := &kvEntry{
		Key:       key,
		Value:     data,
		UpdatedAt: time.Now(),
	}

	_, err := withDBRetry(ctx, func() (sql.Result, error) {
		return s.db.NewInsert().
			Model(entry).
			On("CONFLICT (key) DO UPDATE").
			Set("value = EXCLUDED.value").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	return nil
}

// withDBRetry retries transient PostgreSQL failures; other errors are returned at once.
func withDBRetry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return utils.WithRetry(ctx, func() (T, error) {
		result, err := operation()
		if err != nil && !isRetryableError(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, utils.GetStoreRetryOptions())
}

// isRetryableError checks if the given error is worth another attempt.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		switch code := pgerr.Field('C'); {
		case strings.HasPrefix(code, "08"), // connection_exception
			code == "40001",                // serialization_failure
			code == "40P01",                // deadlock_detected
			strings.HasPrefix(code, "53"),  // insufficient_resources
			strings.HasPrefix(code, "57P"): // operator_intervention
			return true
		}
		return false
	}

	errMsg := err.Error()

	return strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "i/o timeout")
}
