package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	VenueID     string    `bun:"venue_id,pk" json:"venue_id"`
	OwnerID     string    `bun:"owner_id" json:"owner_id"`
	Name        string    `bun:"name" json:"name"`
	Location    string    `bun:"location" json:"location"`
	Capacity    int       `bun:"capacity" json:"capacity"`
	PricePerDay float64   `bun:"price_per_day" json:"price_per_day"`
	EventTypes  []string  `bun:"event_types" json:"event_types"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}

type VenueRequest struct {
	OwnerID     string   `json:"owner_id"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	PricePerDay float64  `json:"price_per_day"`
	EventTypes  []string `json:"event_types"`
	// Bookable dates in YYYY-MM-DD format
	Availability []string `json:"availability"`
}
