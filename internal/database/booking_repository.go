package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/railline/train-booking-backend/internal/models"
)

// BookingRepository is the sole writer of booking and fare-class-inventory
// state. Every mutation runs inside a transaction that locks the inventory
// row, so concurrent requests for the same trip+class serialize and a seat
// is never sold twice.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// isTransientError reports whether err is a store-level conflict or timeout
// that is safe to retry from the top of the operation.
func isTransientError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected, lock_not_available
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

// GenerateBookingReference generates a unique booking reference
// Format: TB-YYYYMMDD-XXXXXX (6 char hex)
// Example: TB-20260830-A1B2C3
func (r *BookingRepository) GenerateBookingReference() (string, error) {
	todayStr := time.Now().UTC().Format("20060102")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		randomStr := strings.ToUpper(hex.EncodeToString(randomBytes))

		newRef := fmt.Sprintf("TB-%s-%s", todayStr, randomStr)

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_reference = $1`, newRef)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}

		if count == 0 {
			return newRef, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after 10 attempts")
}

// GetBookedSeatLabels returns the seat labels held by non-cancelled bookings
// for a trip+class, in label order. Advisory read for availability display;
// the authoritative check runs again inside CreateBooking's transaction.
func (r *BookingRepository) GetBookedSeatLabels(tripID uuid.UUID, fareClass models.FareClass) ([]string, error) {
	query := `
		SELECT label
		FROM bookings b, unnest(b.seat_labels) AS label
		WHERE b.trip_id = $1 AND b.fare_class = $2 AND NOT b.is_cancelled
		ORDER BY label`

	var labels []string
	if err := r.db.Select(&labels, query, tripID, fareClass); err != nil {
		return nil, fmt.Errorf("failed to get booked seat labels: %w", err)
	}
	return labels, nil
}

// CreateBookingParams carries the pre-validated inputs of a booking request
// into the atomic unit. Everything is re-checked under lock.
type CreateBookingParams struct {
	TripID               uuid.UUID
	UserID               uuid.UUID
	FareClass            models.FareClass
	SeatLabels           []string
	PaymentAmount        float64
	TransactionReference *string
}

// CreateBooking performs the atomic reserve-and-record unit: it locks the
// inventory row for the trip+class, re-validates expiry, availability, seat
// conflicts and payment under that lock, decrements the counter and
// inserts the booking. Any failure rolls the whole unit back.
func (r *BookingRepository) CreateBooking(p CreateBookingParams) (*models.Booking, error) {
	bookingRef, err := r.GenerateBookingReference()
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Trip must exist and still be bookable at commit time
	var trip struct {
		IsExpired     bool      `db:"is_expired"`
		DepartureTime time.Time `db:"departure_time"`
	}
	err = tx.Get(&trip, `SELECT is_expired, departure_time FROM trips WHERE id = $1`, p.TripID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTripNotFound
		}
		return nil, wrapStoreError("failed to load trip", err)
	}
	if trip.IsExpired || !trip.DepartureTime.After(time.Now().UTC()) {
		return nil, models.ErrTripExpired
	}

	// 2. Lock the inventory row; this serializes concurrent bookings and
	// cancellations for the same trip+class.
	var inv models.FareClassInventory
	err = tx.Get(&inv, `
		SELECT id, trip_id, fare_class, price, total_seats, available_seats, version
		FROM fare_class_inventory
		WHERE trip_id = $1 AND fare_class = $2
		FOR UPDATE`,
		p.TripID, p.FareClass)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrFareClassUnavailable
		}
		return nil, wrapStoreError("failed to lock inventory", err)
	}

	// 3. Counter must cover the request
	seatCount := len(p.SeatLabels)
	if inv.AvailableSeats < seatCount {
		return nil, &models.InsufficientInventoryError{
			FareClass: p.FareClass,
			Requested: seatCount,
			Available: inv.AvailableSeats,
		}
	}

	// 4. No requested label may be held by a non-cancelled booking
	var taken []string
	err = tx.Select(&taken, `
		SELECT DISTINCT label
		FROM bookings b, unnest(b.seat_labels) AS label
		WHERE b.trip_id = $1 AND b.fare_class = $2 AND NOT b.is_cancelled
		  AND label = ANY($3)
		ORDER BY label`,
		p.TripID, p.FareClass, pq.Array(p.SeatLabels))
	if err != nil {
		return nil, wrapStoreError("failed to check seat conflicts", err)
	}
	if len(taken) > 0 {
		return nil, &models.SeatTakenError{Labels: taken}
	}

	// 5. Payment re-check against the authoritative locked price
	totalPrice := inv.Price * float64(seatCount)
	if p.PaymentAmount < totalPrice {
		return nil, &models.InsufficientPaymentError{Required: totalPrice, Provided: p.PaymentAmount}
	}

	// 6. Conditional decrement guards the read-then-write race even if the
	// lock discipline is ever weakened.
	res, err := tx.Exec(`
		UPDATE fare_class_inventory
		SET available_seats = available_seats - $1, version = version + 1
		WHERE id = $2 AND available_seats >= $1`,
		seatCount, inv.ID)
	if err != nil {
		return nil, wrapStoreError("failed to decrement inventory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &models.InsufficientInventoryError{
			FareClass: p.FareClass,
			Requested: seatCount,
			Available: inv.AvailableSeats,
		}
	}

	booking := &models.Booking{
		BookingReference:     bookingRef,
		TripID:               p.TripID,
		UserID:               p.UserID,
		FareClass:            p.FareClass,
		SeatLabels:           models.SeatLabelArray(p.SeatLabels),
		SeatCount:            seatCount,
		TotalPrice:           totalPrice,
		IsCancelled:          false,
		TransactionReference: p.TransactionReference,
	}

	err = tx.QueryRowx(`
		INSERT INTO bookings (
			id, booking_reference, trip_id, user_id, fare_class,
			seat_labels, seat_count, total_price, booking_date,
			is_cancelled, transaction_reference, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), FALSE, $9, 1
		) RETURNING id, booking_date, version`,
		uuid.New(), booking.BookingReference, booking.TripID, booking.UserID,
		booking.FareClass, booking.SeatLabels, booking.SeatCount,
		booking.TotalPrice, booking.TransactionReference,
	).Scan(&booking.ID, &booking.BookingDate, &booking.Version)
	if err != nil {
		return nil, wrapStoreError("failed to create booking", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, wrapStoreError("failed to commit booking transaction", err)
	}

	return booking, nil
}

// CancelBooking marks a booking cancelled and releases its seats back to the
// inventory row, as one atomic unit mirroring CreateBooking.
func (r *BookingRepository) CancelBooking(bookingID, userID uuid.UUID) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var booking models.Booking
	err = tx.Get(&booking, `
		SELECT b.id, b.booking_reference, b.trip_id, b.user_id, b.fare_class,
		       b.seat_labels, b.seat_count, b.total_price, b.booking_date,
		       b.is_cancelled, b.cancelled_at, b.transaction_reference, b.version,
		       t.departure_time
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.id = $1 AND b.user_id = $2
		FOR UPDATE OF b`,
		bookingID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBookingNotFound
		}
		return nil, wrapStoreError("failed to load booking", err)
	}

	if booking.IsCancelled {
		return nil, models.ErrAlreadyCancelled
	}
	if !booking.DepartureTime.After(time.Now().UTC()) {
		return nil, models.ErrPastDeparture
	}

	res, err := tx.Exec(`
		UPDATE bookings
		SET is_cancelled = TRUE, cancelled_at = NOW(), version = version + 1
		WHERE id = $1 AND version = $2`,
		booking.ID, booking.Version)
	if err != nil {
		return nil, wrapStoreError("failed to cancel booking", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: booking was modified concurrently", models.ErrTransientStore)
	}

	// Release seats into the booking's own fare class. LEAST guards the
	// available <= total invariant if a capacity reconciliation shrank the
	// class while the booking was live.
	_, err = tx.Exec(`
		UPDATE fare_class_inventory
		SET available_seats = LEAST(total_seats, available_seats + $1), version = version + 1
		WHERE trip_id = $2 AND fare_class = $3`,
		booking.SeatCount, booking.TripID, booking.FareClass)
	if err != nil {
		return nil, wrapStoreError("failed to release seats", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, wrapStoreError("failed to commit cancellation", err)
	}

	booking.IsCancelled = true
	now := time.Now().UTC()
	booking.CancelledAt = &now
	return &booking, nil
}

// GetBookingByIDAndUserID retrieves a booking owned by the given user
func (r *BookingRepository) GetBookingByIDAndUserID(bookingID, userID uuid.UUID) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT b.id, b.booking_reference, b.trip_id, b.user_id, b.fare_class,
		       b.seat_labels, b.seat_count, b.total_price, b.booking_date,
		       b.is_cancelled, b.cancelled_at, b.transaction_reference, b.version,
		       t.source AS trip_source, t.destination AS trip_destination,
		       t.departure_time, tr.name AS train_name
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		JOIN trains tr ON tr.id = t.train_id
		WHERE b.id = $1 AND b.user_id = $2`

	err := r.db.Get(booking, query, bookingID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBookingsByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetBookingsByUserID(userID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.booking_reference, b.trip_id, b.user_id, b.fare_class,
		       b.seat_labels, b.seat_count, b.total_price, b.booking_date,
		       b.is_cancelled, b.cancelled_at, b.transaction_reference, b.version,
		       t.source AS trip_source, t.destination AS trip_destination,
		       t.departure_time, tr.name AS train_name
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		JOIN trains tr ON tr.id = t.train_id
		WHERE b.user_id = $1
		ORDER BY b.booking_date DESC`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

// GetBookingsByTripID retrieves all non-cancelled bookings for a trip
func (r *BookingRepository) GetBookingsByTripID(tripID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.booking_reference, b.trip_id, b.user_id, b.fare_class,
		       b.seat_labels, b.seat_count, b.total_price, b.booking_date,
		       b.is_cancelled, b.cancelled_at, b.transaction_reference, b.version
		FROM bookings b
		WHERE b.trip_id = $1 AND NOT b.is_cancelled
		ORDER BY b.booking_date DESC`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get trip bookings: %w", err)
	}
	return bookings, nil
}

// HasActiveBookingsForTrip reports whether any non-cancelled booking
// references the trip
func (r *BookingRepository) HasActiveBookingsForTrip(tripID uuid.UUID) (bool, error) {
	var count int
	err := r.db.Get(&count, `
		SELECT COUNT(*) FROM bookings WHERE trip_id = $1 AND NOT is_cancelled`,
		tripID)
	if err != nil {
		return false, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count > 0, nil
}

// CountBookedSeats sums the non-cancelled seat counts for a trip+class
func (r *BookingRepository) CountBookedSeats(tripID uuid.UUID, fareClass models.FareClass) (int, error) {
	var count int
	err := r.db.Get(&count, `
		SELECT COALESCE(SUM(seat_count), 0) FROM bookings
		WHERE trip_id = $1 AND fare_class = $2 AND NOT is_cancelled`,
		tripID, fareClass)
	if err != nil {
		return 0, fmt.Errorf("failed to count booked seats: %w", err)
	}
	return count, nil
}

// wrapStoreError tags transaction conflicts as transient so callers can
// retry the whole operation; everything else stays a plain store failure.
func wrapStoreError(msg string, err error) error {
	if isTransientError(err) {
		return fmt.Errorf("%w: %s: %v", models.ErrTransientStore, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
