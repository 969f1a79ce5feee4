package models

import (
	"errors"
	"fmt"
	"strings"
)

// Not-found category
var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrTrainNotFound   = errors.New("train not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrBookingNotFound = errors.New("booking not found or you don't have permission to access it")
)

// Validation category
var (
	ErrValidation         = errors.New("validation error")
	ErrEmptySeatSelection = errors.New("at least one seat must be selected")
	ErrSameTerminals      = errors.New("source and destination terminals cannot be the same")
	ErrDepartureInPast    = errors.New("departure time must be in the future")
)

// State-conflict category
var (
	ErrTripExpired           = errors.New("this trip has expired and is no longer available for booking")
	ErrFareClassUnavailable  = errors.New("no pricing found for this fare class on this trip")
	ErrAlreadyCancelled      = errors.New("booking is already cancelled")
	ErrPastDeparture         = errors.New("cannot cancel booking after trip departure time")
	ErrSeatAlreadyTaken      = errors.New("seat already taken")
	ErrInsufficientInventory = errors.New("not enough seats available")
	ErrSchedulingConflict    = errors.New("scheduling conflict")
	ErrTripHasBookings       = errors.New("trip has active bookings")
)

// Payment category
var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrPaymentGateway      = errors.New("payment gateway error")
)

// ErrTransientStore marks a transaction conflict or store timeout; the whole
// operation is safe to retry with the same inputs.
var ErrTransientStore = errors.New("transient store error")

// InvalidSeatFormatError reports a seat label that does not match the
// <ClassInitial><number> format for its fare class.
type InvalidSeatFormatError struct {
	Label     string
	FareClass FareClass
}

func (e *InvalidSeatFormatError) Error() string {
	return fmt.Sprintf("invalid seat label %q: expected %c1-%c<n> for %s class",
		e.Label, e.FareClass.Initial(), e.FareClass.Initial(), e.FareClass)
}

func (e *InvalidSeatFormatError) Unwrap() error { return ErrValidation }

// DuplicateSeatError reports a label listed more than once in one request.
type DuplicateSeatError struct {
	Label string
}

func (e *DuplicateSeatError) Error() string {
	return fmt.Sprintf("seat %s is listed more than once in the request", e.Label)
}

func (e *DuplicateSeatError) Unwrap() error { return ErrValidation }

// SeatTakenError reports requested labels already held by non-cancelled bookings.
type SeatTakenError struct {
	Labels []string
}

func (e *SeatTakenError) Error() string {
	if len(e.Labels) == 1 {
		return fmt.Sprintf("seat %s is already taken", e.Labels[0])
	}
	return fmt.Sprintf("seats %s are already taken", strings.Join(e.Labels, ", "))
}

func (e *SeatTakenError) Unwrap() error { return ErrSeatAlreadyTaken }

// InsufficientInventoryError reports how many seats remain when a request
// asks for more than the class has left.
type InsufficientInventoryError struct {
	FareClass FareClass
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("only %d seats are available in %s class, %d requested",
		e.Available, e.FareClass, e.Requested)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// InsufficientPaymentError reports the shortfall on a booking payment.
type InsufficientPaymentError struct {
	Required float64
	Provided float64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: required NGN %.2f, provided NGN %.2f",
		e.Required, e.Provided)
}

func (e *InsufficientPaymentError) Unwrap() error { return ErrInsufficientPayment }

// SchedulingConflictError reports a trip scheduled too close to another trip
// of the same train.
type SchedulingConflictError struct {
	TrainID     string
	MinGapHours int
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("train %s already has a trip within %d hours of the requested departure",
		e.TrainID, e.MinGapHours)
}

func (e *SchedulingConflictError) Unwrap() error { return ErrSchedulingConflict }
