// Package app wires the storefront session: the cart engine, the credential
// and the API client, each with a single owner.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/booking"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/seating"
	"storefront/internal/storage"
)

// State owns the collaborators of one client session. Cart is the only
// writer of the persisted cart and Auth the only writer of the credential.
type State struct {
	Config *config.Config
	Logger *zap.Logger
	API    *api.Client
	Cart   *cart.Engine
	Auth   *auth.Session

	closeStorage func() error
}

// New opens the configured storage and loads the persisted cart and credential
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*State, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, closeStorage, err := storage.NewFactory(cfg, logger).CreateBackend(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open cart storage: %w", err)
	}

	credentials, err := storage.NewFileBackend(cfg.Auth.CredentialDir)
	if err != nil {
		_ = closeStorage()
		return nil, fmt.Errorf("failed to open credential storage: %w", err)
	}

	logger.Info("storage ready", zap.String("backend", backend.Name()))

	return &State{
		Config:       cfg,
		Logger:       logger,
		API:          api.NewClient(cfg.API, logger),
		Cart:         cart.NewEngine(ctx, storage.NewCartStore(backend, logger), logger),
		Auth:         auth.NewSession(ctx, credentials, logger),
		closeStorage: closeStorage,
	}, nil
}

// Close releases the storage backend
func (s *State) Close() error {
	if s.closeStorage == nil {
		return nil
	}
	return s.closeStorage()
}

// BookingSession is one interactive seat booking for a vehicle and travel date
type BookingSession struct {
	View        *seating.View
	Coordinator *booking.Coordinator

	api       *api.Client
	vehicleID string
}

// NewBookingSession fetches the vehicle for travelDate and opens a seat view
// with a coordinator bound to the session credential.
func (s *State) NewBookingSession(ctx context.Context, vehicleID, travelDate string) (*BookingSession, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("%w: vehicle id is required", models.ErrInvalidInput)
	}
	if _, err := time.Parse(models.TravelDateLayout, travelDate); err != nil {
		return nil, fmt.Errorf("%w: travel date must look like %s", models.ErrInvalidInput, models.TravelDateLayout)
	}

	vehicle, err := s.API.FetchVehicle(ctx, vehicleID, travelDate)
	if err != nil {
		return nil, err
	}

	view := seating.NewView(vehicle, travelDate)
	return &BookingSession{
		View:        view,
		Coordinator: booking.NewCoordinator(view, s.API, s.Auth, s.Config.Booking, s.Logger),
		api:         s.API,
		vehicleID:   vehicleID,
	}, nil
}

// Refresh re-fetches the vehicle and prunes selected seats that were booked
// meanwhile. It returns the dropped seats.
func (b *BookingSession) Refresh(ctx context.Context) ([]int, error) {
	vehicle, err := b.api.FetchVehicle(ctx, b.vehicleID, b.View.TravelDate())
	if err != nil {
		return nil, err
	}
	return b.View.Refresh(vehicle), nil
}
