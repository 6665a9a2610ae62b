// Package cart reconciles repeated add operations, quantity edits and totals
// for the persistent shopping cart.
package cart

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/observe"
)

// Store persists cart snapshots. Implementations swallow their own failures.
type Store interface {
	Load(ctx context.Context) models.Cart
	Save(ctx context.Context, cart models.Cart)
}

// Engine owns the in-memory cart and mirrors it into a Store after every mutation
type Engine struct {
	mu      sync.Mutex
	cart    models.Cart
	store   Store
	logger  *zap.Logger
	changes observe.Subject[models.Cart]
}

// NewEngine creates an engine seeded from the store's snapshot
func NewEngine(ctx context.Context, store Store, logger *zap.Logger) *Engine {
	return &Engine{
		cart:   store.Load(ctx),
		store:  store,
		logger: logging.Named(logger, "cart"),
	}
}

// Add merges quantity of product into the cart. A product already in the cart
// has its quantity increased; otherwise a new line is appended. Quantities are
// taken as given, zero and negative included. Products without an id are ignored.
func (e *Engine) Add(ctx context.Context, product models.Product, quantity int) {
	if product.ID == "" {
		e.logger.Warn("ignoring product without id", zap.String("name", product.Name))
		return
	}

	e.mutate(ctx, func(c *models.Cart) bool {
		if i := c.Find(product.ID); i >= 0 {
			c.Lines[i].Quantity += quantity
			return true
		}
		c.Lines = append(c.Lines, product.Line(quantity))
		return true
	})
	e.logger.Debug("item added", zap.String("product_id", product.ID), zap.Int("quantity", quantity))
}

// Remove deletes the line for productID, if present
func (e *Engine) Remove(ctx context.Context, productID string) {
	e.mutate(ctx, func(c *models.Cart) bool {
		i := c.Find(productID)
		if i < 0 {
			return false
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return true
	})
}

// SetQuantity overwrites the quantity of the line for productID. No lower bound is applied.
func (e *Engine) SetQuantity(ctx context.Context, productID string, quantity int) {
	e.mutate(ctx, func(c *models.Cart) bool {
		i := c.Find(productID)
		if i < 0 {
			return false
		}
		c.Lines[i].Quantity = quantity
		return true
	})
}

// Clear empties the cart
func (e *Engine) Clear(ctx context.Context) {
	e.mutate(ctx, func(c *models.Cart) bool {
		c.Lines = nil
		return true
	})
}

// mutate applies fn under the lock, saves when fn reports a change and
// notifies subscribers after the lock is released.
func (e *Engine) mutate(ctx context.Context, fn func(c *models.Cart) bool) {
	e.mu.Lock()
	if !fn(&e.cart) {
		e.mu.Unlock()
		return
	}
	e.store.Save(ctx, e.cart)
	snapshot := e.cart.Clone()
	e.mu.Unlock()

	e.changes.Notify(snapshot)
}

// TotalPrice returns the sum of quantity × unit price over all lines
func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Total()
}

// Lines returns a copy of the cart lines in first-added order
func (e *Engine) Lines() []models.CartLine {
	return e.Snapshot().Lines
}

// Snapshot returns a copy of the cart
func (e *Engine) Snapshot() models.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Clone()
}

// Len returns the number of distinct lines
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cart.Lines)
}

// Count returns the total number of units across all lines
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, line := range e.cart.Lines {
		n += line.Quantity
	}
	return n
}

// Subscribe registers fn to receive the cart after every mutation
func (e *Engine) Subscribe(fn func(models.Cart)) func() {
	return e.changes.Subscribe(fn)
}

// ParseQuantity parses a quantity typed by the user
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, models.ErrInvalidQuantity
	}
	return n, nil
}
