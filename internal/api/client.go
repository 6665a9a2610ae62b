// Package api is the HTTP client for the storefront API the booking and cart
// engines depend on.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/models"
)

// RejectionError is returned when the server answers with a non-2xx status
type RejectionError struct {
	StatusCode int
	Message    string // server supplied message, empty when none was sent
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("storefront api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("storefront api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unauthorized reports whether the server refused the credential
func (e *RejectionError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// errorResponse is the body the server sends with a rejection
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the storefront API
type Client struct {
	baseURL     string
	client      *http.Client
	readTimeout time.Duration
	logger      *zap.Logger
}

// NewClient creates a client for cfg.BaseURL. Reads are bounded by
// cfg.ReadTimeout; reservation submission is bounded only by the caller's context.
func NewClient(cfg config.APIConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		client:      &http.Client{},
		readTimeout: cfg.ReadTimeout,
		logger:      logging.Named(logger, "api"),
	}
}

// FetchVehicle returns the seats and booked seats of a vehicle for travelDate
func (c *Client) FetchVehicle(ctx context.Context, vehicleID, travelDate string) (models.Vehicle, error) {
	var vehicle models.Vehicle

	path := "/api/vehicles/" + url.PathEscape(vehicleID)
	if travelDate != "" {
		path += "?date=" + url.QueryEscape(travelDate)
	}

	if err := c.get(ctx, path, &vehicle); err != nil {
		return models.Vehicle{}, fmt.Errorf("failed to fetch vehicle %s: %w", vehicleID, err)
	}
	return vehicle, nil
}

// FetchProduct returns one catalogue product
func (c *Client) FetchProduct(ctx context.Context, productID string) (models.Product, error) {
	var product models.Product
	if err := c.get(ctx, "/api/products/"+url.PathEscape(productID), &product); err != nil {
		return models.Product{}, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}
	return product, nil
}

// ListProducts returns the catalogue
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, "/api/products", &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// SubmitReservation sends req with credential as bearer token. The request is
// not idempotent and is never retried here.
func (c *Client) SubmitReservation(ctx context.Context, req models.ReservationRequest, credential string) (models.Reservation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("failed to marshal reservation request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/bookings", bytes.NewReader(body))
	if err != nil {
		return models.Reservation{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	var reservation models.Reservation
	if err := c.do(httpReq, &reservation); err != nil {
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	logger := c.logger.With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("request failed", zap.Error(err))
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		_ = json.Unmarshal(respBody, &errResp)

		rejection := &RejectionError{StatusCode: resp.StatusCode, Message: errResp.Message}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", models.ErrNotFound, rejection)
		}
		return rejection
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
