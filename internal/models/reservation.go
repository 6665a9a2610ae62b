package models

// TravelDateLayout is the wire format of travel dates
const TravelDateLayout = "2006-01-02"

// ReservationSeat identifies one seat in a reservation request. Numbering is
// whatever the vehicle uses, zero included.
type ReservationSeat struct {
	SeatNumber int `json:"seatNumber"`
}

// ReservationRequest is sent to the storefront API to book seats
type ReservationRequest struct {
	VehicleID  string            `json:"vehicleId" validate:"required"`
	RouteID    string            `json:"routeId" validate:"required"`
	TravelDate string            `json:"travelDate" validate:"required,datetime=2006-01-02"`
	Seats      []ReservationSeat `json:"seats" validate:"required,min=1,dive"`
}

// SeatNumbers returns the seat numbers of the request in order
func (r ReservationRequest) SeatNumbers() []int {
	numbers := make([]int, 0, len(r.Seats))
	for _, s := range r.Seats {
		numbers = append(numbers, s.SeatNumber)
	}
	return numbers
}

// Reservation is the server acknowledgement of a reservation request
type Reservation struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
