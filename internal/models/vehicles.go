package models

import (
	"time"

	"github.com/google/uuid"
)

type Vehicle struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Seats        int       `json:"seats"`
	Transmission string    `json:"transmission"`
	Fuel         string    `json:"fuel"`
	PricePerDay  float64   `json:"price_per_day"`
	ImageURL     string    `json:"image_url,omitempty"`
	Description  string    `json:"description,omitempty"`
	Featured     bool      `json:"featured"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VehicleInput is the writable subset of a vehicle.
type VehicleInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Brand        string  `json:"brand" validate:"required,max=60"`
	Category     string  `json:"category" validate:"required,oneof=economy compact sedan suv van luxury"`
	Seats        int     `json:"seats" validate:"required,min=1,max=15"`
	Transmission string  `json:"transmission" validate:"required,oneof=manual automatic"`
	Fuel         string  `json:"fuel" validate:"required,oneof=petrol diesel hybrid electric"`
	PricePerDay  float64 `json:"price_per_day" validate:"required,gt=0"`
	ImageURL     string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Description  string  `json:"description,omitempty" validate:"max=2000"`
	Featured     bool    `json:"featured"`
	Available    bool    `json:"available"`
}

// VehicleFilter narrows catalog queries. Zero values mean "any".
type VehicleFilter struct {
	Category      string
	Search        string
	OnlyAvailable bool
	OnlyFeatured  bool
	Limit         int
}
