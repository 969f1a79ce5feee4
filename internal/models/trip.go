package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trip represents one scheduled run of a train between two terminals
type Trip struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TrainID       uuid.UUID  `json:"train_id" db:"train_id"`
	Source        Terminal   `json:"source" db:"source"`
	Destination   Terminal   `json:"destination" db:"destination"`
	DepartureTime time.Time  `json:"departure_time" db:"departure_time"`
	IsExpired     bool       `json:"is_expired" db:"is_expired"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" db:"updated_at"`

	// Loaded relations, populated by the repository where needed
	TrainNumber string               `json:"train_number,omitempty" db:"train_number"`
	TrainName   string               `json:"train_name,omitempty" db:"train_name"`
	Inventories []FareClassInventory `json:"inventories,omitempty" db:"-"`
}

// IsBookable reports whether the trip can still accept bookings. Advisory
// only; the booking transaction re-checks under lock.
func (t *Trip) IsBookable(now time.Time) bool {
	return !t.IsExpired && t.DepartureTime.After(now)
}

// InventoryFor returns the inventory row for a fare class, if priced
func (t *Trip) InventoryFor(fc FareClass) *FareClassInventory {
	for i := range t.Inventories {
		if t.Inventories[i].FareClass == fc {
			return &t.Inventories[i]
		}
	}
	return nil
}

// FareClassInventory is the per-trip, per-class seat counter: the single
// source of truth for availability. Mutated only inside a booking or
// cancellation transaction; the version column is bumped on every write.
type FareClassInventory struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TripID         uuid.UUID `json:"trip_id" db:"trip_id"`
	FareClass      FareClass `json:"fare_class" db:"fare_class"`
	Price          float64   `json:"price" db:"price"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	Version        int64     `json:"version" db:"version"`
}

// TripPricingRequest carries one fare class price when creating a trip.
// Total seats come from the train's capacity, never from the request.
type TripPricingRequest struct {
	FareClass string  `json:"fare_class" binding:"required"`
	Price     float64 `json:"price" binding:"required,gt=0"`
}

// CreateTripRequest represents the request to schedule a trip
type CreateTripRequest struct {
	TrainID       uuid.UUID            `json:"train_id" binding:"required"`
	Source        string               `json:"source" binding:"required"`
	Destination   string               `json:"destination" binding:"required"`
	DepartureTime time.Time            `json:"departure_time" binding:"required"`
	Pricings      []TripPricingRequest `json:"pricings" binding:"required"`
}

// Validate checks the parts of the request that need no repository access
func (r *CreateTripRequest) Validate() error {
	src, err := ParseTerminal(r.Source)
	if err != nil {
		return err
	}
	dst, err := ParseTerminal(r.Destination)
	if err != nil {
		return err
	}
	if src == dst {
		return ErrSameTerminals
	}
	if len(r.Pricings) == 0 {
		return fmt.Errorf("%w: at least one fare class pricing must be provided", ErrValidation)
	}
	seen := make(map[FareClass]bool, len(r.Pricings))
	for _, p := range r.Pricings {
		fc, err := ParseFareClass(p.FareClass)
		if err != nil {
			return err
		}
		if seen[fc] {
			return fmt.Errorf("%w: fare class %s priced more than once", ErrValidation, fc)
		}
		seen[fc] = true
		if p.Price <= 0 {
			return fmt.Errorf("%w: price for %s class must be positive", ErrValidation, fc)
		}
	}
	return nil
}

// UpdateTripRequest represents an edit to a trip without active bookings
type UpdateTripRequest struct {
	Source        string               `json:"source" binding:"required"`
	Destination   string               `json:"destination" binding:"required"`
	DepartureTime time.Time            `json:"departure_time" binding:"required"`
	Pricings      []TripPricingRequest `json:"pricings" binding:"required"`
}

// TripSummary is the listing view of an available trip
type TripSummary struct {
	ID            uuid.UUID            `json:"id"`
	TrainNumber   string               `json:"train_number"`
	TrainName     string               `json:"train_name"`
	Source        Terminal             `json:"source"`
	Destination   Terminal             `json:"destination"`
	DepartureTime time.Time            `json:"departure_time"`
	Inventories   []FareClassInventory `json:"inventories"`
}
