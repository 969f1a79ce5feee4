package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/railline/train-booking-backend/internal/database"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTripServiceFixture(t *testing.T, minGap time.Duration) (*TripService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := NewTripService(
		database.NewTripRepository(sqlxDB),
		database.NewTrainRepository(sqlxDB),
		database.NewBookingRepository(sqlxDB),
		minGap,
		logger,
	)
	return service, mock
}

func trainRow(trainID uuid.UUID, economy, business, first int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "train_number", "name", "description",
		"economy_capacity", "business_capacity", "first_class_capacity",
		"created_at", "updated_at",
	}).AddRow(trainID, "TR-100", "Lagos Express", "", economy, business, first, now, now)
}

func TestCreateTripService(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	pinClock(t, now)
	trainID := uuid.New()

	validRequest := func() *models.CreateTripRequest {
		return &models.CreateTripRequest{
			TrainID:       trainID,
			Source:        "Lagos",
			Destination:   "Abuja",
			DepartureTime: now.Add(48 * time.Hour),
			Pricings:      []models.TripPricingRequest{{FareClass: "Economy", Price: 5000}},
		}
	}

	t.Run("Same Terminals Rejected", func(t *testing.T) {
		service, _ := newTripServiceFixture(t, 3*time.Hour)
		req := validRequest()
		req.Destination = "Lagos"
		_, err := service.CreateTrip(req)
		assert.ErrorIs(t, err, models.ErrSameTerminals)
	})

	t.Run("Unknown Terminal Rejected", func(t *testing.T) {
		service, _ := newTripServiceFixture(t, 3*time.Hour)
		req := validRequest()
		req.Source = "Atlantis"
		_, err := service.CreateTrip(req)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Past Departure Rejected", func(t *testing.T) {
		service, _ := newTripServiceFixture(t, 3*time.Hour)
		req := validRequest()
		req.DepartureTime = now.Add(-time.Hour)
		_, err := service.CreateTrip(req)
		assert.ErrorIs(t, err, models.ErrDepartureInPast)
	})

	t.Run("Duplicate Pricing Rejected", func(t *testing.T) {
		service, _ := newTripServiceFixture(t, 3*time.Hour)
		req := validRequest()
		req.Pricings = []models.TripPricingRequest{
			{FareClass: "Economy", Price: 5000},
			{FareClass: "Economy", Price: 6000},
		}
		_, err := service.CreateTrip(req)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("Scheduling Conflict", func(t *testing.T) {
		service, mock := newTripServiceFixture(t, 3*time.Hour)
		mock.ExpectQuery(`SELECT id, train_number`).
			WithArgs(trainID).
			WillReturnRows(trainRow(trainID, 40, 20, 10))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trips`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		_, err := service.CreateTrip(validRequest())
		assert.ErrorIs(t, err, models.ErrSchedulingConflict)
		var conflictErr *models.SchedulingConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, 3, conflictErr.MinGapHours)
	})

	t.Run("Success", func(t *testing.T) {
		service, mock := newTripServiceFixture(t, 3*time.Hour)
		mock.ExpectQuery(`SELECT id, train_number`).
			WithArgs(trainID).
			WillReturnRows(trainRow(trainID, 40, 20, 10))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trips`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(uuid.New(), now))
		mock.ExpectQuery(`INSERT INTO fare_class_inventory`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()

		trip, err := service.CreateTrip(validRequest())
		require.NoError(t, err)
		require.Len(t, trip.Inventories, 1)
		assert.Equal(t, 40, trip.Inventories[0].TotalSeats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetAvailableTrips(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	pinClock(t, now)

	t.Run("Sweeps Expiry Before Listing", func(t *testing.T) {
		service, mock := newTripServiceFixture(t, 0)
		tripID := uuid.New()

		mock.ExpectExec(`UPDATE trips`).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT t\.id, t\.train_id`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "train_id", "source", "destination", "departure_time",
				"is_expired", "created_at", "updated_at", "train_number", "train_name",
			}).AddRow(
				tripID, uuid.New(), "Lagos", "Abuja", now.Add(5*time.Hour),
				false, now.Add(-time.Hour), nil, "TR-100", "Lagos Express",
			))
		mock.ExpectQuery(`SELECT id, trip_id, fare_class`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "fare_class", "price", "total_seats", "available_seats", "version",
			}).AddRow(uuid.New(), tripID, "Economy", 5000.0, 40, 38, 2))

		trips, err := service.GetAvailableTrips()
		require.NoError(t, err)
		require.Len(t, trips, 1)
		assert.Equal(t, tripID, trips[0].ID)
		require.Len(t, trips[0].Inventories, 1)
		assert.Equal(t, 38, trips[0].Inventories[0].AvailableSeats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateTripRejectsActiveBookings(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	pinClock(t, now)
	service, mock := newTripServiceFixture(t, 0)

	tripID := uuid.New()
	trainID := uuid.New()

	mock.ExpectQuery(`SELECT t\.id, t\.train_id`).
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "train_id", "source", "destination", "departure_time",
			"is_expired", "created_at", "updated_at", "train_number", "train_name",
		}).AddRow(
			tripID, trainID, "Lagos", "Abuja", now.Add(24*time.Hour),
			false, now.Add(-time.Hour), nil, "TR-100", "Lagos Express",
		))
	mock.ExpectQuery(`SELECT id, trip_id, fare_class`).
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "trip_id", "fare_class", "price", "total_seats", "available_seats", "version",
		}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE trip_id`).
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := service.UpdateTrip(tripID, &models.UpdateTripRequest{
		Source:        "Lagos",
		Destination:   "Kano",
		DepartureTime: now.Add(36 * time.Hour),
		Pricings:      []models.TripPricingRequest{{FareClass: "Economy", Price: 4000}},
	})
	assert.ErrorIs(t, err, models.ErrTripHasBookings)
}
