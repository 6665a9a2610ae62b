package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/logging"
)

// Factory creates the configured backend with a local file fallback
type Factory struct {
	config *config.Config
	logger *zap.Logger
}

// NewFactory creates a new storage factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{config: cfg, logger: logging.Named(logger, "storage")}
}

// CreateBackend returns the configured backend and a close function. When a
// remote backend cannot be reached the file backend is used instead.
func (f *Factory) CreateBackend(ctx context.Context) (Backend, func() error, error) {
	noop := func() error { return nil }

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch f.config.Storage.Backend {
	case "memory":
		return NewMemoryBackend(), noop, nil

	case "redis":
		backend, err := NewRedisBackend(ctx, f.config.Redis)
		if err == nil {
			return backend, backend.Close, nil
		}
		f.logger.Warn("redis unavailable, using file storage", zap.Error(err))

	case "s3":
		backend, err := NewS3Backend(ctx, f.config.S3)
		if err == nil {
			return backend, noop, nil
		}
		f.logger.Warn("S3 unavailable, using file storage", zap.Error(err))

	case "postgres":
		backend, err := OpenPostgres(ctx, f.config.Database)
		if err == nil {
			return backend, backend.Close, nil
		}
		f.logger.Warn("postgres unavailable, using file storage", zap.Error(err))

	case "sqlite":
		backend, err := OpenSQLite(ctx, f.config.Database.SQLitePath)
		if err == nil {
			return backend, backend.Close, nil
		}
		f.logger.Warn("sqlite unavailable, using file storage", zap.Error(err))
	}

	backend, err := NewFileBackend(f.config.Storage.Dir)
	if err != nil {
		return nil, noop, err
	}
	return backend, noop, nil
}
