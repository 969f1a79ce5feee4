package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Train represents a physical train with per-class seating capacity.
// Capacities seed the total seat counts of each trip's fare class inventory
// at trip creation time; the booking core never reads the train afterwards.
type Train struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	TrainNumber        string    `json:"train_number" db:"train_number"`
	Name               string    `json:"name" db:"name"`
	Description        string    `json:"description" db:"description"`
	EconomyCapacity    int       `json:"economy_capacity" db:"economy_capacity"`
	BusinessCapacity   int       `json:"business_capacity" db:"business_capacity"`
	FirstClassCapacity int       `json:"first_class_capacity" db:"first_class_capacity"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// TotalCapacity returns the seat count across all classes
func (t *Train) TotalCapacity() int {
	return t.EconomyCapacity + t.BusinessCapacity + t.FirstClassCapacity
}

// CapacityFor returns the seat capacity for a fare class
func (t *Train) CapacityFor(fc FareClass) int {
	switch fc {
	case FareClassEconomy:
		return t.EconomyCapacity
	case FareClassBusiness:
		return t.BusinessCapacity
	case FareClassFirstClass:
		return t.FirstClassCapacity
	}
	return 0
}

// CreateTrainRequest represents the request to register a train
type CreateTrainRequest struct {
	TrainNumber        string `json:"train_number" binding:"required"`
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	EconomyCapacity    int    `json:"economy_capacity" binding:"min=0"`
	BusinessCapacity   int    `json:"business_capacity" binding:"min=0"`
	FirstClassCapacity int    `json:"first_class_capacity" binding:"min=0"`
}

// Validate validates the create train request
func (r *CreateTrainRequest) Validate() error {
	if r.EconomyCapacity < 0 || r.BusinessCapacity < 0 || r.FirstClassCapacity < 0 {
		return fmt.Errorf("%w: seat capacities cannot be negative", ErrValidation)
	}
	if r.EconomyCapacity+r.BusinessCapacity+r.FirstClassCapacity == 0 {
		return fmt.Errorf("%w: train must have at least one seat", ErrValidation)
	}
	return nil
}

// UpdateTrainRequest represents a capacity/metadata edit on a train.
// Capacity changes trigger a reconciliation pass over active trips.
type UpdateTrainRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	EconomyCapacity    int    `json:"economy_capacity" binding:"min=0"`
	BusinessCapacity   int    `json:"business_capacity" binding:"min=0"`
	FirstClassCapacity int    `json:"first_class_capacity" binding:"min=0"`
}
