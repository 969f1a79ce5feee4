package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking represents a confirmed seat reservation on a trip. Immutable once
// created except for the cancelled flag; created only through the booking
// transaction after inventory and payment checks pass.
type Booking struct {
	ID                   uuid.UUID      `json:"id" db:"id"`
	BookingReference     string         `json:"booking_reference" db:"booking_reference"`
	TripID               uuid.UUID      `json:"trip_id" db:"trip_id"`
	UserID               uuid.UUID      `json:"user_id" db:"user_id"`
	FareClass            FareClass      `json:"fare_class" db:"fare_class"`
	SeatLabels           SeatLabelArray `json:"seat_labels" db:"seat_labels"`
	SeatCount            int            `json:"seat_count" db:"seat_count"`
	TotalPrice           float64        `json:"total_price" db:"total_price"`
	BookingDate          time.Time      `json:"booking_date" db:"booking_date"`
	IsCancelled          bool           `json:"is_cancelled" db:"is_cancelled"`
	CancelledAt          *time.Time     `json:"cancelled_at,omitempty" db:"cancelled_at"`
	TransactionReference *string        `json:"transaction_reference,omitempty" db:"transaction_reference"`
	Version              int64          `json:"version" db:"version"`

	// Loaded relations for listing views
	TripSource      Terminal  `json:"trip_source,omitempty" db:"trip_source"`
	TripDestination Terminal  `json:"trip_destination,omitempty" db:"trip_destination"`
	DepartureTime   time.Time `json:"departure_time,omitempty" db:"departure_time"`
	TrainName       string    `json:"train_name,omitempty" db:"train_name"`
}

// CanBeCancelled reports whether the booking is still cancellable at the
// given instant. Advisory; the cancellation transaction re-checks under lock.
func (b *Booking) CanBeCancelled(now time.Time) bool {
	return !b.IsCancelled && b.DepartureTime.After(now)
}

// CreateBookingRequest represents the request to book seats on a trip
type CreateBookingRequest struct {
	TripID               uuid.UUID `json:"trip_id" binding:"required"`
	FareClass            string    `json:"fare_class" binding:"required"`
	SeatLabels           []string  `json:"seat_labels" binding:"required"`
	PaymentAmount        float64   `json:"payment_amount" binding:"required,gt=0"`
	TransactionReference string    `json:"transaction_reference"`
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
}

// BookingResult is returned on a successful booking
type BookingResult struct {
	BookingID        uuid.UUID `json:"booking_id"`
	BookingReference string    `json:"booking_reference"`
	Message          string    `json:"message"`
	TotalPrice       float64   `json:"total_price"`
	Change           float64   `json:"change"`
}

// CancelResult is returned on a successful cancellation
type CancelResult struct {
	BookingID    uuid.UUID `json:"booking_id"`
	Message      string    `json:"message"`
	RefundAmount float64   `json:"refund_amount"`
}

// InitializePaymentRequest asks the payment gateway for a checkout handle
// covering a prospective booking
type InitializePaymentRequest struct {
	TripID    uuid.UUID `json:"trip_id" binding:"required"`
	FareClass string    `json:"fare_class" binding:"required"`
	SeatCount int       `json:"seat_count" binding:"required,gt=0"`
}

// PaymentInitResult is returned when a gateway transaction has been opened
type PaymentInitResult struct {
	AuthorizationURL string  `json:"authorization_url"`
	AccessCode       string  `json:"access_code"`
	Reference        string  `json:"reference"`
	Amount           float64 `json:"amount"`
}

// BookingSummary is the per-user listing view of a booking
type BookingSummary struct {
	ID               uuid.UUID `json:"id"`
	BookingReference string    `json:"booking_reference"`
	TrainName        string    `json:"train_name"`
	Source           Terminal  `json:"source"`
	Destination      Terminal  `json:"destination"`
	DepartureTime    time.Time `json:"departure_time"`
	FareClass        FareClass `json:"fare_class"`
	SeatLabels       []string  `json:"seat_labels"`
	TotalPrice       float64   `json:"total_price"`
	BookingDate      time.Time `json:"booking_date"`
	IsCancelled      bool      `json:"is_cancelled"`
}
