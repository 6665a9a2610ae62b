package stub

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// Seed loads a small demo catalogue: two coaches and a few hardware and garage items
func Seed(s *Server) {
	s.AddVehicle(models.Vehicle{
		ID:    "coach-1",
		Name:  "Coastline Express",
		Seats: seatRange(1, 40),
		Route: models.Route{ID: "nbo-mba", From: "Nairobi", To: "Mombasa", BasePrice: decimal.NewFromInt(1500)},
	})
	s.AddVehicle(models.Vehicle{
		ID:    "shuttle-2",
		Name:  "Lakeside Shuttle",
		Seats: seatRange(1, 14),
		Route: models.Route{ID: "nbo-ksm", From: "Nairobi", To: "Kisumu", BasePrice: decimal.NewFromInt(1200)},
	})

	for _, record := range []string{
		`{"id":"hw-hammer","name":"Claw hammer 16oz","price":"850","category":"hardware","stock":25,"image":"/img/hammer.jpg"}`,
		`{"id":"hw-nails","name":"Wire nails 3in (1kg)","price":"220","category":"hardware","stock":300,"image":"/img/nails.jpg"}`,
		`{"id":"hw-drill","name":"Cordless drill 18V","price":"7499.50","category":"hardware","stock":4,"voltage":"18V","image":"/img/drill.jpg"}`,
		`{"id":"gr-oil","name":"Oil change service","price":"3500","category":"garage","image":"/img/oil.jpg"}`,
		`{"id":"gr-align","name":"Wheel alignment","price":"2000","category":"garage","image":"/img/align.jpg"}`,
	} {
		_ = s.AddProduct(record)
	}
}

func seatRange(from, to int) []int {
	seats := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		seats = append(seats, n)
	}
	return seats
}
