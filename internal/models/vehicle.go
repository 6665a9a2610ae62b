package models

import "github.com/shopspring/decimal"

// SeatStatus represents the derived state of a seat during a booking session
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatSelected  SeatStatus = "selected"
	SeatBooked    SeatStatus = "booked"
)

// Seat is a seat number together with its current status
type Seat struct {
	Number int        `json:"seat_number"`
	Status SeatStatus `json:"status"`
}

// Route represents the route a vehicle serves
type Route struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

// Vehicle is the server snapshot of a vehicle for one travel date
type Vehicle struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	Seats             []int  `json:"seats"`
	BookedSeatNumbers []int  `json:"bookedSeatNumbers"`
	Route             Route  `json:"route"`
}
