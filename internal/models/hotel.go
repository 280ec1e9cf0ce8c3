package models

import (
	"time"

	"github.com/uptrace/bun"
)

type HotelImages struct {
	Img1 string `json:"img1"`
	Img2 string `json:"img2"`
	Img3 string `json:"img3"`
}

type Hotel struct {
	bun.BaseModel `bun:"table:hotels"`

	ID             string      `bun:"id,pk" json:"id"`
	ManagerID      string      `bun:"manager_id,notnull" json:"managerId"`
	Name           string      `bun:"name,notnull" json:"name"`
	City           string      `bun:"city,notnull" json:"city"`
	Address        string      `bun:"address,notnull" json:"address"`
	Description    string      `bun:"description" json:"description"`
	Amenities      []string    `bun:"amenities,type:jsonb" json:"amenities"`
	Images         HotelImages `bun:"images,type:jsonb" json:"images"`
	PricePerNight  float64     `bun:"price_per_night" json:"pricePerNight"`
	AvailableRooms int         `bun:"available_rooms" json:"availableRooms"`
	CreatedAt      time.Time   `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt      time.Time   `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}
