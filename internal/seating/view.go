// Package seating derives the booked/selected/available state of a vehicle's
// seats for one interactive booking session.
package seating

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/observe"
)

// View tracks the local seat selection for one (vehicle, travel date) pair.
// The booked set is server-authoritative; the selection is purely local.
type View struct {
	mu         sync.Mutex
	vehicle    models.Vehicle
	travelDate string
	seats      []int
	known      map[int]bool
	booked     map[int]bool
	selected   map[int]bool
	changes    observe.Subject[struct{}]
}

// NewView creates a view over the server snapshot of vehicle with an empty selection
func NewView(vehicle models.Vehicle, travelDate string) *View {
	v := &View{
		travelDate: travelDate,
		selected:   make(map[int]bool),
	}
	v.load(vehicle)
	return v
}

func (v *View) load(vehicle models.Vehicle) {
	v.vehicle = vehicle
	v.seats = append([]int(nil), vehicle.Seats...)
	v.known = make(map[int]bool, len(vehicle.Seats))
	for _, n := range vehicle.Seats {
		v.known[n] = true
	}
	v.booked = make(map[int]bool, len(vehicle.BookedSeatNumbers))
	for _, n := range vehicle.BookedSeatNumbers {
		v.booked[n] = true
	}
}

// Toggle flips seat in or out of the selection. Booked seats and seats the
// vehicle does not have are ignored. Reports whether the selection changed.
func (v *View) Toggle(seat int) bool {
	v.mu.Lock()
	if v.booked[seat] || !v.known[seat] {
		v.mu.Unlock()
		return false
	}
	if v.selected[seat] {
		delete(v.selected, seat)
	} else {
		v.selected[seat] = true
	}
	v.mu.Unlock()

	v.changes.Notify(struct{}{})
	return true
}

// Status returns the current status of seat
func (v *View) Status(seat int) models.SeatStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status(seat)
}

func (v *View) status(seat int) models.SeatStatus {
	switch {
	case v.booked[seat]:
		return models.SeatBooked
	case v.selected[seat]:
		return models.SeatSelected
	default:
		return models.SeatAvailable
	}
}

// Seats returns every seat of the vehicle with its status, in server order
func (v *View) Seats() []models.Seat {
	v.mu.Lock()
	defer v.mu.Unlock()

	seats := make([]models.Seat, 0, len(v.seats))
	for _, n := range v.seats {
		seats = append(seats, models.Seat{Number: n, Status: v.status(n)})
	}
	return seats
}

// Selection returns the selected seat numbers in ascending order
func (v *View) Selection() []int {
	v.mu.Lock()
	defer v.mu.Unlock()

	selection := make([]int, 0, len(v.selected))
	for n := range v.selected {
		selection = append(selection, n)
	}
	sort.Ints(selection)
	return selection
}

// SelectionSize returns the number of selected seats
func (v *View) SelectionSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.selected)
}

// TotalPrice returns |selection| × the route's base price
func (v *View) TotalPrice() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vehicle.Route.BasePrice.Mul(decimal.NewFromInt(int64(len(v.selected))))
}

// Clear empties the selection
func (v *View) Clear() {
	v.mu.Lock()
	if len(v.selected) == 0 {
		v.mu.Unlock()
		return
	}
	v.selected = make(map[int]bool)
	v.mu.Unlock()

	v.changes.Notify(struct{}{})
}

// Refresh replaces the server snapshot with freshly fetched data. Selected
// seats that are now booked, or no longer exist, leave the selection.
// It returns the seats that were dropped.
func (v *View) Refresh(vehicle models.Vehicle) []int {
	v.mu.Lock()
	v.load(vehicle)

	var dropped []int
	for n := range v.selected {
		if v.booked[n] || !v.known[n] {
			delete(v.selected, n)
			dropped = append(dropped, n)
		}
	}
	sort.Ints(dropped)
	v.mu.Unlock()

	v.changes.Notify(struct{}{})
	return dropped
}

// Vehicle returns the current server snapshot
func (v *View) Vehicle() models.Vehicle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vehicle
}

// TravelDate returns the date this view was opened for
func (v *View) TravelDate() string {
	return v.travelDate
}

// Subscribe registers fn to be called whenever the booked set or selection changes
func (v *View) Subscribe(fn func()) func() {
	return v.changes.Subscribe(func(struct{}) { fn() })
}
