package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func expectReferenceCheck(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_reference`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
}

func TestCreateBooking(t *testing.T) {
	tripID := uuid.New()
	userID := uuid.New()
	invID := uuid.New()
	futureDeparture := time.Now().UTC().Add(24 * time.Hour)

	expectTripRow := func(mock sqlmock.Sqlmock, expired bool, departure time.Time) {
		mock.ExpectQuery(`SELECT is_expired, departure_time FROM trips`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{"is_expired", "departure_time"}).
				AddRow(expired, departure))
	}

	expectInventoryLock := func(mock sqlmock.Sqlmock, price float64, total, available int) {
		mock.ExpectQuery(`SELECT id, trip_id, fare_class, price, total_seats, available_seats, version\s+FROM fare_class_inventory`).
			WithArgs(tripID, models.FareClassEconomy).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "fare_class", "price", "total_seats", "available_seats", "version",
			}).AddRow(invID, tripID, "Economy", price, total, available, 3))
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, futureDeparture)
		expectInventoryLock(mock, 5000, 40, 10)
		mock.ExpectQuery(`SELECT DISTINCT label`).
			WillReturnRows(sqlmock.NewRows([]string{"label"}))
		mock.ExpectExec(`UPDATE fare_class_inventory`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		bookingID := uuid.New()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_date", "version"}).
				AddRow(bookingID, time.Now().UTC(), 1))
		mock.ExpectCommit()

		booking, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1", "E2"},
			PaymentAmount: 12000,
		})
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)
		assert.Equal(t, 2, booking.SeatCount)
		assert.Equal(t, 10000.0, booking.TotalPrice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Trip Not Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT is_expired, departure_time FROM trips`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{"is_expired", "departure_time"}))
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1"},
			PaymentAmount: 5000,
		})
		assert.ErrorIs(t, err, models.ErrTripNotFound)
	})

	t.Run("Trip Expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, true, futureDeparture)
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1"},
			PaymentAmount: 5000,
		})
		assert.ErrorIs(t, err, models.ErrTripExpired)
	})

	t.Run("Departed Trip Rejected Even When Not Flagged", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, time.Now().UTC().Add(-time.Hour))
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1"},
			PaymentAmount: 5000,
		})
		assert.ErrorIs(t, err, models.ErrTripExpired)
	})

	t.Run("Seat Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, futureDeparture)
		expectInventoryLock(mock, 5000, 40, 10)
		mock.ExpectQuery(`SELECT DISTINCT label`).
			WillReturnRows(sqlmock.NewRows([]string{"label"}).AddRow("E1"))
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1", "E2"},
			PaymentAmount: 12000,
		})
		assert.ErrorIs(t, err, models.ErrSeatAlreadyTaken)
		var seatErr *models.SeatTakenError
		require.ErrorAs(t, err, &seatErr)
		assert.Equal(t, []string{"E1"}, seatErr.Labels)
	})

	t.Run("Insufficient Inventory", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, futureDeparture)
		expectInventoryLock(mock, 5000, 40, 1)
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1", "E2"},
			PaymentAmount: 12000,
		})
		assert.ErrorIs(t, err, models.ErrInsufficientInventory)
		var invErr *models.InsufficientInventoryError
		require.ErrorAs(t, err, &invErr)
		assert.Equal(t, 1, invErr.Available)
		assert.Equal(t, 2, invErr.Requested)
	})

	t.Run("Empty Counter Reported Before Seat Conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		// counter is empty and E1 is booked; the counter check comes first,
		// so the conflict query never runs
		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, futureDeparture)
		expectInventoryLock(mock, 5000, 40, 0)
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1", "E2"},
			PaymentAmount: 12000,
		})
		assert.ErrorIs(t, err, models.ErrInsufficientInventory)
		assert.NotErrorIs(t, err, models.ErrSeatAlreadyTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insufficient Payment Under Lock", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, futureDeparture)
		expectInventoryLock(mock, 5000, 40, 10)
		mock.ExpectQuery(`SELECT DISTINCT label`).
			WillReturnRows(sqlmock.NewRows([]string{"label"}))
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1", "E2"},
			PaymentAmount: 9999.99,
		})
		assert.ErrorIs(t, err, models.ErrInsufficientPayment)
	})

	t.Run("Decrement Race Guard", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		expectReferenceCheck(mock)
		mock.ExpectBegin()
		expectTripRow(mock, false, futureDeparture)
		expectInventoryLock(mock, 5000, 40, 5)
		mock.ExpectQuery(`SELECT DISTINCT label`).
			WillReturnRows(sqlmock.NewRows([]string{"label"}))
		mock.ExpectExec(`UPDATE fare_class_inventory`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.CreateBooking(CreateBookingParams{
			TripID:        tripID,
			UserID:        userID,
			FareClass:     models.FareClassEconomy,
			SeatLabels:    []string{"E1"},
			PaymentAmount: 5000,
		})
		assert.ErrorIs(t, err, models.ErrInsufficientInventory)
	})
}

func TestCancelBooking(t *testing.T) {
	bookingID := uuid.New()
	userID := uuid.New()
	tripID := uuid.New()

	bookingColumns := []string{
		"id", "booking_reference", "trip_id", "user_id", "fare_class",
		"seat_labels", "seat_count", "total_price", "booking_date",
		"is_cancelled", "cancelled_at", "transaction_reference", "version",
		"departure_time",
	}

	bookingRow := func(cancelled bool, departure time.Time) *sqlmock.Rows {
		return sqlmock.NewRows(bookingColumns).AddRow(
			bookingID, "TB-20260830-A1B2C3", tripID, userID, "Economy",
			[]byte(`{E1,E2}`), 2, 10000.0, time.Now().UTC().Add(-time.Hour),
			cancelled, nil, nil, 1,
			departure,
		)
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b\.id, b\.booking_reference`).
			WithArgs(bookingID, userID).
			WillReturnRows(bookingRow(false, time.Now().UTC().Add(12*time.Hour)))
		mock.ExpectExec(`UPDATE bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE fare_class_inventory`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		booking, err := repo.CancelBooking(bookingID, userID)
		require.NoError(t, err)
		assert.True(t, booking.IsCancelled)
		assert.NotNil(t, booking.CancelledAt)
		assert.Equal(t, 10000.0, booking.TotalPrice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b\.id, b\.booking_reference`).
			WithArgs(bookingID, userID).
			WillReturnRows(sqlmock.NewRows(bookingColumns))
		mock.ExpectRollback()

		_, err := repo.CancelBooking(bookingID, userID)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b\.id, b\.booking_reference`).
			WithArgs(bookingID, userID).
			WillReturnRows(bookingRow(true, time.Now().UTC().Add(12*time.Hour)))
		mock.ExpectRollback()

		_, err := repo.CancelBooking(bookingID, userID)
		assert.ErrorIs(t, err, models.ErrAlreadyCancelled)
	})

	t.Run("Past Departure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b\.id, b\.booking_reference`).
			WithArgs(bookingID, userID).
			WillReturnRows(bookingRow(false, time.Now().UTC().Add(-time.Minute)))
		mock.ExpectRollback()

		_, err := repo.CancelBooking(bookingID, userID)
		assert.ErrorIs(t, err, models.ErrPastDeparture)
	})

	t.Run("Concurrent Modification", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b\.id, b\.booking_reference`).
			WithArgs(bookingID, userID).
			WillReturnRows(bookingRow(false, time.Now().UTC().Add(12*time.Hour)))
		mock.ExpectExec(`UPDATE bookings`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.CancelBooking(bookingID, userID)
		assert.ErrorIs(t, err, models.ErrTransientStore)
	})
}

func TestGenerateBookingReference(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Format", func(t *testing.T) {
		expectReferenceCheck(mock)

		ref, err := repo.GenerateBookingReference()
		require.NoError(t, err)
		assert.Regexp(t, `^TB-\d{8}-[0-9A-F]{6}$`, ref)
	})

	t.Run("Retries On Collision", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_reference`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		expectReferenceCheck(mock)

		ref, err := repo.GenerateBookingReference()
		require.NoError(t, err)
		assert.NotEmpty(t, ref)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookedSeatLabels(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	tripID := uuid.New()

	mock.ExpectQuery(`SELECT label`).
		WithArgs(tripID, models.FareClassBusiness).
		WillReturnRows(sqlmock.NewRows([]string{"label"}).AddRow("B1").AddRow("B3"))

	labels, err := repo.GetBookedSeatLabels(tripID, models.FareClassBusiness)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B3"}, labels)
}

func TestHasActiveBookingsForTrip(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	tripID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE trip_id`).
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	has, err := repo.HasActiveBookingsForTrip(tripID)
	require.NoError(t, err)
	assert.True(t, has)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE trip_id`).
		WithArgs(tripID).
		WillReturnError(fmt.Errorf("connection reset"))

	_, err = repo.HasActiveBookingsForTrip(tripID)
	assert.Error(t, err)
}
