package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkExpiredTrips(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)
	now := time.Now().UTC()

	t.Run("Flags Departed Trips", func(t *testing.T) {
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.MarkExpiredTrips(now)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("Idempotent When Nothing To Flag", func(t *testing.T) {
		mock.ExpectExec(`UPDATE trips`).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := repo.MarkExpiredTrips(now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestGetAvailableTrips(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)
	now := time.Now().UTC()

	t.Run("Excludes Fully Booked Trips", func(t *testing.T) {
		tripID := uuid.New()
		// the listing query must require a class with seats left; a trip
		// whose every inventory row is at zero never reaches the response
		mock.ExpectQuery(`EXISTS \(\s*SELECT 1 FROM fare_class_inventory fci\s+WHERE fci\.trip_id = t\.id AND fci\.available_seats > 0`).
			WithArgs(now).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "train_id", "source", "destination", "departure_time",
				"is_expired", "created_at", "updated_at", "train_number", "train_name",
			}).AddRow(
				tripID, uuid.New(), "Lagos", "Abuja", now.Add(24*time.Hour),
				false, now, nil, "TR-100", "Lagos Express",
			))
		mock.ExpectQuery(`FROM fare_class_inventory`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "fare_class", "price", "total_seats", "available_seats", "version",
			}).AddRow(uuid.New(), tripID, "Economy", 5000.0, 40, 3, 1))

		trips, err := repo.GetAvailableTrips(now)
		require.NoError(t, err)
		require.Len(t, trips, 1)
		assert.Equal(t, tripID, trips[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTrip(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	train := &models.Train{
		ID:                 uuid.New(),
		TrainNumber:        "TR-100",
		Name:               "Lagos Express",
		EconomyCapacity:    40,
		BusinessCapacity:   20,
		FirstClassCapacity: 0,
	}
	departure := time.Now().UTC().Add(48 * time.Hour)

	t.Run("Seeds Inventory From Train Capacity", func(t *testing.T) {
		tripID := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(tripID, time.Now().UTC()))
		mock.ExpectQuery(`INSERT INTO fare_class_inventory`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectQuery(`INSERT INTO fare_class_inventory`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()

		trip, err := repo.CreateTrip(&models.CreateTripRequest{
			TrainID:       train.ID,
			Source:        "Lagos",
			Destination:   "Abuja",
			DepartureTime: departure,
			Pricings: []models.TripPricingRequest{
				{FareClass: "Economy", Price: 5000},
				{FareClass: "Business", Price: 9000},
			},
		}, train)
		require.NoError(t, err)
		require.Len(t, trip.Inventories, 2)
		assert.Equal(t, 40, trip.Inventories[0].TotalSeats)
		assert.Equal(t, 40, trip.Inventories[0].AvailableSeats)
		assert.Equal(t, 20, trip.Inventories[1].TotalSeats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejects Class The Train Cannot Seat", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(uuid.New(), time.Now().UTC()))
		mock.ExpectRollback()

		_, err := repo.CreateTrip(&models.CreateTripRequest{
			TrainID:       train.ID,
			Source:        "Lagos",
			Destination:   "Abuja",
			DepartureTime: departure,
			Pricings: []models.TripPricingRequest{
				{FareClass: "FirstClass", Price: 15000},
			},
		}, train)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestCountConflictingTrips(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	trainID := uuid.New()
	departure := time.Now().UTC().Add(24 * time.Hour)
	gap := 3 * time.Hour

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trips`).
		WithArgs(trainID, departure.Add(-gap), departure.Add(gap), nil).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountConflictingTrips(trainID, departure, gap, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReconcileInventoryCapacity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTripRepository(db)

	trainID := uuid.New()
	train := &models.Train{
		ID:                 trainID,
		EconomyCapacity:    50,
		BusinessCapacity:   20,
		FirstClassCapacity: 10,
	}

	// availability must be recomputed from the booked seat count, not nudged
	// by the capacity delta, or repeated shrink-then-grow edits drift the
	// counter away from the seat-label sets
	recompute := `available_seats = GREATEST\(0, \$1 - COALESCE\(booked\.seats, 0\)\)`

	mock.ExpectExec(recompute).
		WithArgs(50, trainID, models.FareClassEconomy).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(recompute).
		WithArgs(20, trainID, models.FareClassBusiness).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(recompute).
		WithArgs(10, trainID, models.FareClassFirstClass).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.ReconcileInventoryCapacity(trainID, train)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
