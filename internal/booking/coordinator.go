// Package booking drives a seat selection through validation and submission
// to the storefront API.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/observe"
	"storefront/internal/seating"
)

// GenericFailureMessage is shown when the server rejects a booking without saying why
const GenericFailureMessage = "Booking failed. Please try again."

// State is the phase of the submission state machine
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateRejected   State = "rejected"
)

// ReservationClient sends reservation requests to the server
type ReservationClient interface {
	SubmitReservation(ctx context.Context, req models.ReservationRequest, credential string) (models.Reservation, error)
}

// CredentialSource provides the current bearer credential, "" when logged out
type CredentialSource interface {
	Credential() string
}

// RejectionError is returned when the server declined the reservation.
// Message is safe to show to the user.
type RejectionError struct {
	Message string
	Err     error
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Confirmation describes an accepted reservation and where the caller should go next
type Confirmation struct {
	Reservation   models.Reservation
	Seats         []int
	Total         decimal.Decimal
	RedirectTo    string
	RedirectAfter time.Duration
}

// Coordinator submits the selection of one seating view. It never retries;
// each failure returns control to the caller for an explicit re-submission.
type Coordinator struct {
	mu    sync.Mutex
	state State

	view        *seating.View
	client      ReservationClient
	credentials CredentialSource
	booking     config.BookingConfig
	validate    *validator.Validate
	logger      *zap.Logger
	changes     observe.Subject[State]
}

// NewCoordinator creates an idle coordinator for view
func NewCoordinator(view *seating.View, client ReservationClient, credentials CredentialSource, cfg config.BookingConfig, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		state:       StateIdle,
		view:        view,
		client:      client,
		credentials: credentials,
		booking:     cfg,
		validate:    validator.New(),
		logger:      logging.Named(logger, "booking"),
	}
}

// State returns the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state transition
func (c *Coordinator) Subscribe(fn func(State)) func() {
	return c.changes.Subscribe(fn)
}

// Submit validates the current selection and sends it as a reservation.
//
// It returns ErrSubmissionInProgress while another Submit is running,
// ErrAuthRequired when there is no credential or the server refuses it,
// ErrEmptySelection when no seat is selected and *RejectionError when the
// server declines. On success the selection is cleared.
func (c *Coordinator) Submit(ctx context.Context) (*Confirmation, error) {
	if !c.begin() {
		return nil, models.ErrSubmissionInProgress
	}

	credential := c.credentials.Credential()
	if credential == "" {
		c.transition(StateIdle)
		return nil, models.ErrAuthRequired
	}

	seats := c.view.Selection()
	if len(seats) == 0 {
		c.transition(StateIdle)
		return nil, models.ErrEmptySelection
	}

	vehicle := c.view.Vehicle()
	req := models.ReservationRequest{
		VehicleID:  vehicle.ID,
		RouteID:    vehicle.Route.ID,
		TravelDate: c.view.TravelDate(),
		Seats:      make([]models.ReservationSeat, 0, len(seats)),
	}
	for _, n := range seats {
		req.Seats = append(req.Seats, models.ReservationSeat{SeatNumber: n})
	}
	if err := c.validate.Struct(req); err != nil {
		c.transition(StateIdle)
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	total := c.view.TotalPrice()

	c.transition(StateSubmitting)
	logger := c.logger.With(zap.String("vehicle_id", req.VehicleID), zap.Ints("seats", seats))

	reservation, err := c.client.SubmitReservation(ctx, req, credential)
	if err != nil {
		var rejection *api.RejectionError
		if errors.As(err, &rejection) && rejection.Unauthorized() {
			logger.Info("credential refused by server")
			c.transition(StateIdle)
			return nil, fmt.Errorf("%w: %w", models.ErrAuthRequired, err)
		}

		message := GenericFailureMessage
		if rejection != nil && rejection.Message != "" {
			message = rejection.Message
		}
		logger.Warn("booking rejected", zap.String("message", message), zap.Error(err))
		c.transition(StateRejected)
		return nil, &RejectionError{Message: message, Err: err}
	}

	c.view.Clear()
	c.transition(StateSucceeded)
	logger.Info("booking confirmed", zap.String("reservation_id", reservation.ID))

	return &Confirmation{
		Reservation:   reservation,
		Seats:         seats,
		Total:         total,
		RedirectTo:    c.booking.RedirectTo,
		RedirectAfter: c.booking.RedirectDelay,
	}, nil
}

// begin moves to Validating unless a submission is already running
func (c *Coordinator) begin() bool {
	c.mu.Lock()
	if c.state == StateValidating || c.state == StateSubmitting {
		c.mu.Unlock()
		return false
	}
	c.state = StateValidating
	c.mu.Unlock()

	c.changes.Notify(StateValidating)
	return true
}

func (c *Coordinator) transition(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.changes.Notify(state)
}
