package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ItineraryDay struct {
	Day      int    `json:"day"`
	Activity string `json:"activity"`
}

// Package is a bookable tour with a fixed number of seats. SeatsTaken mirrors the sum of
// guests over the package's active bookings and is maintained by the booking ledger.
type Package struct {
	bun.BaseModel `bun:"table:packages"`

	ID          string         `bun:"id,pk" json:"id"`
	AgentID     string         `bun:"agent_id,notnull" json:"agentId"`
	IsCustom    bool           `bun:"is_custom,notnull" json:"isCustom"`
	Title       string         `bun:"title,notnull" json:"title"`
	Destination string         `bun:"destination,notnull" json:"destination"`
	Duration    int            `bun:"duration,notnull" json:"duration"`
	Seats       int            `bun:"seats,notnull" json:"seats"`
	SeatsTaken  int            `bun:"seats_taken,notnull" json:"seatsTaken"`
	StartDate   time.Time      `bun:"start_date,notnull" json:"startDate"`
	Price       float64        `bun:"price,notnull" json:"price"`
	Description string         `bun:"description" json:"description"`
	Images      []string       `bun:"images,type:jsonb" json:"images"`
	Itinerary   []ItineraryDay `bun:"itinerary,type:jsonb" json:"itinerary"`
	HotelID     string         `bun:"hotel_id,nullzero" json:"hotelId,omitempty"`
	GuideID     string         `bun:"guide_id,nullzero" json:"guideId,omitempty"`
	DriverID    string         `bun:"driver_id,nullzero" json:"driverId,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,notnull" json:"createdAt"`
}

func (p *Package) SeatsLeft() int {
	if left := p.Seats - p.SeatsTaken; left > 0 {
		return left
	}
	return 0
}
