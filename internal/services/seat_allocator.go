package services

import (
	"fmt"
	"strconv"

	"github.com/railline/train-booking-backend/internal/models"
	"github.com/railline/train-booking-backend/pkg/validator"
)

// SeatAllocator derives the seat map of a fare class from its inventory row
// and the labels held by live bookings. Labels are <ClassInitial><number>,
// numbered 1..total_seats, e.g. E1..E40 for a 40-seat economy class.
type SeatAllocator struct {
	labels *validator.SeatLabelValidator
}

// NewSeatAllocator creates a new SeatAllocator
func NewSeatAllocator() *SeatAllocator {
	return &SeatAllocator{labels: validator.NewSeatLabelValidator()}
}

// LabelFor returns the canonical label for a seat number in a fare class
func (a *SeatAllocator) LabelFor(fc models.FareClass, number int) string {
	return fmt.Sprintf("%c%d", fc.Initial(), number)
}

// AllLabels returns every label of a fare class in seat-number order
func (a *SeatAllocator) AllLabels(fc models.FareClass, totalSeats int) []string {
	labels := make([]string, 0, totalSeats)
	for n := 1; n <= totalSeats; n++ {
		labels = append(labels, a.LabelFor(fc, n))
	}
	return labels
}

// ComputeAvailableSeats returns the labels of a class not held by any
// non-cancelled booking, in seat-number order.
func (a *SeatAllocator) ComputeAvailableSeats(fc models.FareClass, totalSeats int, bookedLabels []string) []string {
	booked := make(map[string]bool, len(bookedLabels))
	for _, label := range bookedLabels {
		booked[label] = true
	}

	available := make([]string, 0, totalSeats)
	for n := 1; n <= totalSeats; n++ {
		if label := a.LabelFor(fc, n); !booked[label] {
			available = append(available, label)
		}
	}
	return available
}

// ValidateRequestedSeats checks a seat selection against the class layout.
// Checks run in a fixed order so one request always fails the same way:
// empty selection, then label format, then duplicates. Returns sanitized
// labels. Conflicts with booked seats are checked separately via TakenSeats,
// after the caller has verified the availability counter.
func (a *SeatAllocator) ValidateRequestedSeats(fc models.FareClass, totalSeats int, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, models.ErrEmptySeatSelection
	}

	sanitized := make([]string, 0, len(requested))
	for _, label := range requested {
		clean, err := a.labels.Validate(label, fc.Initial(), totalSeats)
		if err != nil {
			return nil, &models.InvalidSeatFormatError{Label: label, FareClass: fc}
		}
		// canonicalize so E07 and E7 name the same seat
		number, _ := strconv.Atoi(clean[1:])
		sanitized = append(sanitized, a.LabelFor(fc, number))
	}

	seen := make(map[string]bool, len(sanitized))
	for _, label := range sanitized {
		if seen[label] {
			return nil, &models.DuplicateSeatError{Label: label}
		}
		seen[label] = true
	}

	return sanitized, nil
}

// TakenSeats returns the requested labels already held by a non-cancelled
// booking, in request order. Empty when the whole selection is free.
func (a *SeatAllocator) TakenSeats(requested, bookedLabels []string) []string {
	booked := make(map[string]bool, len(bookedLabels))
	for _, label := range bookedLabels {
		booked[label] = true
	}

	var taken []string
	for _, label := range requested {
		if booked[label] {
			taken = append(taken, label)
		}
	}
	return taken
}
