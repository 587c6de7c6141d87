// Package postgres implements repository.DocumentStore on PostgreSQL using a
// pgx connection pool. Bodies live in a jsonb column; the schema is managed
// by the embedded golang-migrate migrations.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Storage wraps a pgx pool and implements repository.DocumentStore.
type Storage struct {
	pool *pgxpool.Pool
}

var _ repository.DocumentStore = (*Storage)(nil)

// PoolConfig parses dsn and applies the pool limits used by the server.
func PoolConfig(dsn string) (*pgxpool.Config, error) {
	const (
		defaultMaxConns          = int32(20)
		defaultMinConns          = int32(0)
		defaultMaxConnLifetime   = time.Hour
		defaultMaxConnIdleTime   = 30 * time.Minute
		defaultHealthCheckPeriod = time.Minute
		defaultConnectTimeout    = 5 * time.Second
	)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing dsn: %w", err)
	}

	cfg.MaxConns = defaultMaxConns
	cfg.MinConns = defaultMinConns
	cfg.MaxConnLifetime = defaultMaxConnLifetime
	cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return cfg, nil
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, dsn string) (*Storage, error) {
	const op = "postgres.New"

	cfg, err := PoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Create(ctx context.Context, collection string, doc any) (string, error) {
	const op = "postgres.Create"

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%s: encoding %s document: %w", op, collection, err)
	}

	id := repository.NewID()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body, created_at) VALUES ($1, $2, $3::jsonb, $4)`,
		collection, id, string(body), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, collection, err)
	}

	return id, nil
}

func (s *Storage) Get(ctx context.Context, collection, id string, dst any) error {
	const op = "postgres.Get"

	var body string
	err := s.pool.QueryRow(ctx,
		`SELECT body::text FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound(collection, id)
		}
		return fmt.Errorf("%s: %s %s: %w", op, collection, id, err)
	}

	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("%s: decoding %s %s: %w", op, collection, id, err)
	}
	return nil
}

// Migrate brings the schema up to date. dsn is a postgres:// URL.
func Migrate(dsn string, logger *slog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: opening migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("postgres: preparing migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("postgres: applying migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)))
	return nil
}
