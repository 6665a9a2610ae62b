package storage

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"storefront/internal/logging"
	"storefront/internal/models"
)

// CartKey is the fixed slot the cart snapshot lives in
const CartKey = "cart"

// CartStore mirrors the cart into a Backend. It never fails: unreadable or
// malformed snapshots load as an empty cart and write errors are only logged.
type CartStore struct {
	backend Backend
	key     string
	logger  *zap.Logger
}

// NewCartStore creates a cart store over backend using CartKey
func NewCartStore(backend Backend, logger *zap.Logger) *CartStore {
	return &CartStore{
		backend: backend,
		key:     CartKey,
		logger:  logging.Named(logger, "storage").With(zap.String("backend", backend.Name())),
	}
}

// Load returns the persisted cart, or an empty cart
func (s *CartStore) Load(ctx context.Context) models.Cart {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("cart snapshot unreadable, starting empty", zap.Error(err))
		}
		return models.Cart{}
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		s.logger.Warn("cart snapshot malformed, starting empty", zap.Error(err))
		return models.Cart{}
	}
	return cart
}

// Save overwrites the persisted snapshot with cart
func (s *CartStore) Save(ctx context.Context, cart models.Cart) {
	data, err := json.Marshal(cart)
	if err != nil {
		s.logger.Warn("failed to encode cart snapshot", zap.Error(err))
		return
	}

	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.logger.Warn("failed to persist cart snapshot", zap.Error(err), zap.Int("lines", len(cart.Lines)))
	}
}
