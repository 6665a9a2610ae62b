package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/storage"
)

// ProductSource resolves catalogue products by id
type ProductSource interface {
	FetchProduct(ctx context.Context, productID string) (models.Product, error)
}

// visitorKey is the session value identifying a visitor's cart
const visitorKey = "visitor"

// CartHandler serves visitors' carts. The gorilla session cookie only carries
// a visitor id; cart snapshots live in backend under a per-visitor prefix.
type CartHandler struct {
	products    ProductSource
	backend     storage.Backend
	store       sessions.Store
	sessionName string
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(products ProductSource, backend storage.Backend, store sessions.Store, sessionName string, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		products:    products,
		backend:     backend,
		store:       store,
		sessionName: sessionName,
		validate:    validator.New(),
		logger:      logging.Named(logger, "handlers.cart"),
	}
}

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// UpdateItemRequest is the body of PATCH /cart/items/{productID}.
// Quantity may be sent as a number or a numeric string.
type UpdateItemRequest struct {
	Quantity json.Number `json:"quantity"`
}

// CartResponse is the JSON view of the cart
type CartResponse struct {
	Items []models.CartLine `json:"items"`
	Lines int               `json:"lines"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

// Routes mounts the cart endpoints on r
func (h *CartHandler) Routes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.ViewCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

// visitor returns the visitor id kept in the session bound to w and r,
// issuing a new one when the session has none
func (h *CartHandler) visitor(w http.ResponseWriter, r *http.Request) (string, error) {
	session := storage.NewSessionBackend(h.store, h.sessionName, w, r)

	raw, err := session.Get(r.Context(), visitorKey)
	if err == nil {
		if id, parseErr := uuid.Parse(string(raw)); parseErr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.logger.Warn("discarding unreadable session", zap.Error(err))
	}

	id := uuid.NewString()
	if err := session.Set(r.Context(), visitorKey, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// engine loads the visitor's cart. On failure the error response has been
// written and nil is returned.
func (h *CartHandler) engine(w http.ResponseWriter, r *http.Request) *cart.Engine {
	visitorID, err := h.visitor(w, r)
	if err != nil {
		h.logger.Error("failed to issue visitor session", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Session error")
		return nil
	}

	backend := storage.NewPrefixedBackend(h.backend, "visitors/"+visitorID+"/")
	return cart.NewEngine(r.Context(), storage.NewCartStore(backend, h.logger), h.logger)
}

// ViewCart returns the cart
func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	h.respond(w, engine)
}

// AddItem adds a catalogue product to the cart, merging with an existing line
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid product or quantity")
		return
	}

	product, err := h.products.FetchProduct(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to fetch product", zap.String("product_id", req.ProductID), zap.Error(err))
		WriteError(w, http.StatusBadGateway, "Product catalogue unavailable")
		return
	}

	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	engine.Add(r.Context(), product, req.Quantity)
	h.respond(w, engine)
}

// UpdateItem overwrites the quantity of a cart line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, models.ErrInvalidQuantity.Error())
		return
	}
	quantity, err := cart.ParseQuantity(req.Quantity.String())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	if engine.Snapshot().Find(productID) < 0 {
		WriteError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	engine.SetQuantity(r.Context(), productID, quantity)
	h.respond(w, engine)
}

// RemoveItem deletes a cart line. Removing a missing line is not an error.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	engine.Remove(r.Context(), chi.URLParam(r, "productID"))
	h.respond(w, engine)
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	engine.Clear(r.Context())
	h.respond(w, engine)
}

func (h *CartHandler) respond(w http.ResponseWriter, engine *cart.Engine) {
	lines := engine.Lines()
	if lines == nil {
		lines = []models.CartLine{}
	}

	WriteJSON(w, http.StatusOK, CartResponse{
		Items: lines,
		Lines: len(lines),
		Count: engine.Count(),
		Total: engine.TotalPrice(),
	})
}
