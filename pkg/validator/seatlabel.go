package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmptyLabel indicates the seat label is empty
	ErrEmptyLabel = errors.New("seat label cannot be empty")

	// ErrInvalidFormat indicates the label is not a class initial followed by a number
	ErrInvalidFormat = errors.New("seat label must be a class initial followed by a seat number, e.g. E12")

	// ErrWrongClassInitial indicates the label's initial does not match the booked fare class
	ErrWrongClassInitial = errors.New("seat label does not belong to the requested fare class")

	// ErrSeatNumberOutOfRange indicates the seat number exceeds the class capacity
	ErrSeatNumberOutOfRange = errors.New("seat number is outside the class capacity")
)

// labelRegex matches one uppercase class initial followed by digits
var labelRegex = regexp.MustCompile(`^[A-Z]\d+$`)

// SeatLabelValidator validates seat labels of the form <initial><number>,
// such as E12 for economy seat 12.
type SeatLabelValidator struct{}

// NewSeatLabelValidator creates a new seat label validator instance
func NewSeatLabelValidator() *SeatLabelValidator {
	return &SeatLabelValidator{}
}

// Validate checks one seat label against a fare class initial and the class
// seat capacity. Returns the sanitized (uppercased, trimmed) label.
func (v *SeatLabelValidator) Validate(label string, classInitial byte, capacity int) (string, error) {
	if label == "" {
		return "", ErrEmptyLabel
	}

	sanitized := v.Sanitize(label)

	if !labelRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if sanitized[0] != classInitial {
		return "", ErrWrongClassInitial
	}

	number, err := strconv.Atoi(sanitized[1:])
	if err != nil {
		return "", ErrInvalidFormat
	}
	if number < 1 || number > capacity {
		return "", ErrSeatNumberOutOfRange
	}

	return sanitized, nil
}

// Sanitize uppercases a label and strips surrounding whitespace
func (v *SeatLabelValidator) Sanitize(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// ValidateAll validates and sanitizes a list of labels, rejecting duplicates.
// Returns the sanitized labels in request order.
func (v *SeatLabelValidator) ValidateAll(labels []string, classInitial byte, capacity int) ([]string, error) {
	seen := make(map[string]bool, len(labels))
	sanitized := make([]string, 0, len(labels))
	for _, label := range labels {
		clean, err := v.Validate(label, classInitial, capacity)
		if err != nil {
			return nil, fmt.Errorf("seat %q: %w", label, err)
		}
		if seen[clean] {
			return nil, fmt.Errorf("seat %q requested more than once", clean)
		}
		seen[clean] = true
		sanitized = append(sanitized, clean)
	}
	return sanitized, nil
}

// IsValid is a convenience method that returns true if the label is valid
func (v *SeatLabelValidator) IsValid(label string, classInitial byte, capacity int) bool {
	_, err := v.Validate(label, classInitial, capacity)
	return err == nil
}
