package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"storefront/internal/config"
)

// Supported database/sql drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// SQLBackend stores slots as rows of the storefront_kv table
type SQLBackend struct {
	db     *sql.DB
	driver string
}

// OpenPostgres connects to postgres, migrates the schema and returns a backend
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*SQLBackend, error) {
	db, err := ConnectPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return migrated(ctx, db, DriverPostgres)
}

// OpenSQLite opens the local sqlite file, migrates the schema and returns a backend
func OpenSQLite(ctx context.Context, path string) (*SQLBackend, error) {
	db, err := ConnectSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return migrated(ctx, db, DriverSQLite)
}

// ConnectPostgres opens and pings a postgres pool without touching the schema
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return ping(ctx, db)
}

// ConnectSQLite opens and pings the sqlite file without touching the schema
func ConnectSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(DriverSQLite, path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return ping(ctx, db)
}

func ping(ctx context.Context, db *sql.DB) (*sql.DB, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func migrated(ctx context.Context, db *sql.DB, driver string) (*SQLBackend, error) {
	if err := NewMigrator(db, driver).RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLBackend(db, driver), nil
}

// NewSQLBackend wraps an open database whose schema is already migrated
func NewSQLBackend(db *sql.DB, driver string) *SQLBackend {
	return &SQLBackend{db: db, driver: driver}
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := b.db.QueryRowContext(ctx,
		rebind(b.driver, "SELECT payload FROM storefront_kv WHERE slot = ?"), key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return []byte(payload), nil
}

func (b *SQLBackend) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storefront_kv (slot, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	if _, err := b.db.ExecContext(ctx, rebind(b.driver, query), key, string(value)); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, rebind(b.driver, "DELETE FROM storefront_kv WHERE slot = ?"), key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Name() string { return b.driver }

// Close closes the underlying database
func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// rebind turns ? placeholders into $n for postgres
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
