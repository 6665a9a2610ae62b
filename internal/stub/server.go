// Package stub is an in-memory storefront API. It serves the same HTTP
// contract as the real backend and is used for tests and local development.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// Booking is a reservation the stub accepted
type Booking struct {
	ID         string
	Credential string
	Request    models.ReservationRequest
	CreatedAt  time.Time
}

// Server holds vehicles, products and bookings in memory
type Server struct {
	mu       sync.Mutex
	vehicles map[string]models.Vehicle
	booked   map[string]map[string]map[int]bool // vehicle -> date -> seat
	products map[string]json.RawMessage
	order    []string
	tokens   map[string]bool
	bookings []Booking
	requests int

	validate *validator.Validate
	logger   *zap.Logger
}

// NewServer creates an empty stub
func NewServer(logger *zap.Logger) *Server {
	return &Server{
		vehicles: make(map[string]models.Vehicle),
		booked:   make(map[string]map[string]map[int]bool),
		products: make(map[string]json.RawMessage),
		tokens:   make(map[string]bool),
		validate: validator.New(),
		logger:   logging.Named(logger, "stub"),
	}
}

// AddVehicle registers a vehicle. BookedSeatNumbers on v is ignored; use Book.
func (s *Server) AddVehicle(v models.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.BookedSeatNumbers = nil
	s.vehicles[v.ID] = v
}

// Book marks seats as booked for vehicleID on date
func (s *Server) Book(vehicleID, date string, seats ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book(vehicleID, date, seats)
}

func (s *Server) book(vehicleID, date string, seats []int) {
	byDate, ok := s.booked[vehicleID]
	if !ok {
		byDate = make(map[string]map[int]bool)
		s.booked[vehicleID] = byDate
	}
	set, ok := byDate[date]
	if !ok {
		set = make(map[int]bool)
		byDate[date] = set
	}
	for _, n := range seats {
		set[n] = true
	}
}

// AddProduct registers a product from its full JSON record
func (s *Server) AddProduct(record string) error {
	var p models.Product
	if err := json.Unmarshal([]byte(record), &p); err != nil {
		return fmt.Errorf("invalid product record: %w", err)
	}
	if p.ID == "" {
		return errors.New("product record has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = json.RawMessage(record)
	return nil
}

// AllowCredential restricts bookings to the given bearer tokens. With no
// allowed tokens any non-empty token is accepted.
func (s *Server) AllowCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = true
}

// Bookings returns the accepted bookings
func (s *Server) Bookings() []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Booking(nil), s.bookings...)
}

// BookingAttempts returns how many booking requests reached the stub
func (s *Server) BookingAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Routes returns the HTTP handler of the stub API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recoverer(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/vehicles/{vehicleID}", s.getVehicle)
		r.Get("/products", s.listProducts)
		r.Get("/products/{productID}", s.getProduct)
		r.Post("/bookings", s.createBooking)
	})

	return r
}

func (s *Server) getVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "vehicleID")
	date := r.URL.Query().Get("date")

	s.mu.Lock()
	vehicle, ok := s.vehicles[vehicleID]
	var booked []int
	for n := range s.booked[vehicleID][date] {
		booked = append(booked, n)
	}
	s.mu.Unlock()

	if !ok {
		handlers.WriteError(w, http.StatusNotFound, "Vehicle not found")
		return
	}

	sort.Ints(booked)
	vehicle.BookedSeatNumbers = booked
	if vehicle.BookedSeatNumbers == nil {
		vehicle.BookedSeatNumbers = []int{}
	}
	handlers.WriteJSON(w, http.StatusOK, vehicle)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := make([]json.RawMessage, 0, len(s.order))
	for _, id := range s.order {
		products = append(products, s.products[id])
	}
	s.mu.Unlock()

	handlers.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	record, ok := s.products[chi.URLParam(r, "productID")]
	s.mu.Unlock()

	if !ok {
		handlers.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, record)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" || !s.credentialAllowed(token) {
		handlers.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "Invalid booking request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "Invalid booking request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.vehicles[req.VehicleID]
	if !ok {
		handlers.WriteError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	if vehicle.Route.ID != req.RouteID {
		handlers.WriteError(w, http.StatusBadRequest, "Vehicle does not serve this route")
		return
	}

	known := make(map[int]bool, len(vehicle.Seats))
	for _, n := range vehicle.Seats {
		known[n] = true
	}

	seats := req.SeatNumbers()
	for _, n := range seats {
		if !known[n] {
			handlers.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Seat %d does not exist", n))
			return
		}
		if s.booked[req.VehicleID][req.TravelDate][n] {
			handlers.WriteError(w, http.StatusConflict, fmt.Sprintf("Seat %d already booked", n))
			return
		}
	}

	s.book(req.VehicleID, req.TravelDate, seats)
	booking := Booking{
		ID:         uuid.NewString(),
		Credential: token,
		Request:    req,
		CreatedAt:  time.Now(),
	}
	s.bookings = append(s.bookings, booking)

	s.logger.Info("booking accepted",
		zap.String("booking_id", booking.ID),
		zap.String("vehicle_id", req.VehicleID),
		zap.Ints("seats", seats),
	)

	handlers.WriteJSON(w, http.StatusCreated, models.Reservation{
		ID:      booking.ID,
		Status:  "confirmed",
		Message: "Booking confirmed",
	})
}

func (s *Server) credentialAllowed(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens) == 0 || s.tokens[token]
}
