package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/railline/train-booking-backend/internal/models"
)

// TripRepository handles trip scheduling, listing, expiry and the per-trip
// fare class inventory rows that trips are created with.
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// CreateTrip schedules a trip and seeds one inventory row per priced fare
// class in a single transaction. Seat totals come from the train's capacity
// at this moment and stay frozen on the trip afterwards.
func (r *TripRepository) CreateTrip(req *models.CreateTripRequest, train *models.Train) (*models.Trip, error) {
	src, _ := models.ParseTerminal(req.Source)
	dst, _ := models.ParseTerminal(req.Destination)

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip := &models.Trip{
		TrainID:       req.TrainID,
		Source:        src,
		Destination:   dst,
		DepartureTime: req.DepartureTime,
		TrainNumber:   train.TrainNumber,
		TrainName:     train.Name,
	}

	err = tx.QueryRowx(`
		INSERT INTO trips (id, train_id, source, destination, departure_time, is_expired, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		RETURNING id, created_at`,
		uuid.New(), trip.TrainID, trip.Source, trip.Destination, trip.DepartureTime,
	).Scan(&trip.ID, &trip.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	for _, p := range req.Pricings {
		fc, _ := models.ParseFareClass(p.FareClass)
		capacity := train.CapacityFor(fc)
		if capacity == 0 {
			return nil, fmt.Errorf("%w: train %s has no %s class seats", models.ErrValidation, train.TrainNumber, fc)
		}

		inv := models.FareClassInventory{
			TripID:         trip.ID,
			FareClass:      fc,
			Price:          p.Price,
			TotalSeats:     capacity,
			AvailableSeats: capacity,
			Version:        1,
		}
		err = tx.QueryRowx(`
			INSERT INTO fare_class_inventory (id, trip_id, fare_class, price, total_seats, available_seats, version)
			VALUES ($1, $2, $3, $4, $5, $5, 1)
			RETURNING id`,
			uuid.New(), inv.TripID, inv.FareClass, inv.Price, inv.TotalSeats,
		).Scan(&inv.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create inventory for %s class: %w", fc, err)
		}
		trip.Inventories = append(trip.Inventories, inv)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trip creation: %w", err)
	}

	return trip, nil
}

// GetTripByID retrieves a trip with its train and inventory rows
func (r *TripRepository) GetTripByID(id uuid.UUID) (*models.Trip, error) {
	trip := &models.Trip{}
	query := `
		SELECT t.id, t.train_id, t.source, t.destination, t.departure_time,
		       t.is_expired, t.created_at, t.updated_at,
		       tr.train_number, tr.name AS train_name
		FROM trips t
		JOIN trains tr ON tr.id = t.train_id
		WHERE t.id = $1`

	err := r.db.Get(trip, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	inventories, err := r.GetInventoriesByTripID(id)
	if err != nil {
		return nil, err
	}
	trip.Inventories = inventories
	return trip, nil
}

// GetInventoriesByTripID retrieves the inventory rows of a trip
func (r *TripRepository) GetInventoriesByTripID(tripID uuid.UUID) ([]models.FareClassInventory, error) {
	var inventories []models.FareClassInventory
	query := `
		SELECT id, trip_id, fare_class, price, total_seats, available_seats, version
		FROM fare_class_inventory
		WHERE trip_id = $1
		ORDER BY fare_class`

	if err := r.db.Select(&inventories, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to get trip inventories: %w", err)
	}
	return inventories, nil
}

// GetInventory retrieves one trip's inventory row for a fare class
func (r *TripRepository) GetInventory(tripID uuid.UUID, fareClass models.FareClass) (*models.FareClassInventory, error) {
	inv := &models.FareClassInventory{}
	query := `
		SELECT id, trip_id, fare_class, price, total_seats, available_seats, version
		FROM fare_class_inventory
		WHERE trip_id = $1 AND fare_class = $2`

	err := r.db.Get(inv, query, tripID, fareClass)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrFareClassUnavailable
		}
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return inv, nil
}

// MarkExpiredTrips flags every non-expired trip whose departure time has
// passed. Runs from the cron sweep and before listing queries, so listings
// never show a departed trip even if the sweep is behind.
func (r *TripRepository) MarkExpiredTrips(now time.Time) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE trips
		SET is_expired = TRUE, updated_at = NOW()
		WHERE NOT is_expired AND departure_time <= $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired trips: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// GetAvailableTrips retrieves non-expired future trips that still have at
// least one seat for sale in some fare class, with their inventories,
// soonest departure first. Fully booked trips don't appear.
func (r *TripRepository) GetAvailableTrips(now time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	query := `
		SELECT t.id, t.train_id, t.source, t.destination, t.departure_time,
		       t.is_expired, t.created_at, t.updated_at,
		       tr.train_number, tr.name AS train_name
		FROM trips t
		JOIN trains tr ON tr.id = t.train_id
		WHERE NOT t.is_expired AND t.departure_time > $1
		  AND EXISTS (
			SELECT 1 FROM fare_class_inventory fci
			WHERE fci.trip_id = t.id AND fci.available_seats > 0
		  )
		ORDER BY t.departure_time`

	if err := r.db.Select(&trips, query, now); err != nil {
		return nil, fmt.Errorf("failed to get available trips: %w", err)
	}

	for i := range trips {
		inventories, err := r.GetInventoriesByTripID(trips[i].ID)
		if err != nil {
			return nil, err
		}
		trips[i].Inventories = inventories
	}
	return trips, nil
}

// GetAllTrips retrieves every trip, expired included, newest departure first
func (r *TripRepository) GetAllTrips() ([]models.Trip, error) {
	var trips []models.Trip
	query := `
		SELECT t.id, t.train_id, t.source, t.destination, t.departure_time,
		       t.is_expired, t.created_at, t.updated_at,
		       tr.train_number, tr.name AS train_name
		FROM trips t
		JOIN trains tr ON tr.id = t.train_id
		ORDER BY t.departure_time DESC`

	if err := r.db.Select(&trips, query); err != nil {
		return nil, fmt.Errorf("failed to get trips: %w", err)
	}
	return trips, nil
}

// CountConflictingTrips counts trips of the same train scheduled within the
// gap window around the proposed departure, excluding one trip id when
// editing. Expired trips don't block new schedules.
func (r *TripRepository) CountConflictingTrips(trainID uuid.UUID, departure time.Time, gap time.Duration, excludeTripID *uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM trips
		WHERE train_id = $1 AND NOT is_expired
		  AND departure_time > $2 AND departure_time < $3
		  AND ($4::uuid IS NULL OR id <> $4)`

	err := r.db.Get(&count, query, trainID, departure.Add(-gap), departure.Add(gap), excludeTripID)
	if err != nil {
		return 0, fmt.Errorf("failed to count conflicting trips: %w", err)
	}
	return count, nil
}

// UpdateTrip rewrites a trip's route, departure and pricing in one
// transaction. Callers must have verified the trip has no active bookings;
// inventory rows are replaced wholesale, re-seeded from the train capacity.
func (r *TripRepository) UpdateTrip(tripID uuid.UUID, req *models.UpdateTripRequest, train *models.Train) (*models.Trip, error) {
	src, _ := models.ParseTerminal(req.Source)
	dst, _ := models.ParseTerminal(req.Destination)

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip := &models.Trip{
		ID:            tripID,
		Source:        src,
		Destination:   dst,
		DepartureTime: req.DepartureTime,
		TrainNumber:   train.TrainNumber,
		TrainName:     train.Name,
	}

	err = tx.QueryRowx(`
		UPDATE trips
		SET source = $1, destination = $2, departure_time = $3, updated_at = NOW()
		WHERE id = $4 AND NOT is_expired
		RETURNING train_id, created_at, updated_at`,
		trip.Source, trip.Destination, trip.DepartureTime, tripID,
	).Scan(&trip.TrainID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM fare_class_inventory WHERE trip_id = $1`, tripID); err != nil {
		return nil, fmt.Errorf("failed to clear trip inventories: %w", err)
	}

	for _, p := range req.Pricings {
		fc, _ := models.ParseFareClass(p.FareClass)
		capacity := train.CapacityFor(fc)
		if capacity == 0 {
			return nil, fmt.Errorf("%w: train %s has no %s class seats", models.ErrValidation, train.TrainNumber, fc)
		}

		inv := models.FareClassInventory{
			TripID:         tripID,
			FareClass:      fc,
			Price:          p.Price,
			TotalSeats:     capacity,
			AvailableSeats: capacity,
			Version:        1,
		}
		err = tx.QueryRowx(`
			INSERT INTO fare_class_inventory (id, trip_id, fare_class, price, total_seats, available_seats, version)
			VALUES ($1, $2, $3, $4, $5, $5, 1)
			RETURNING id`,
			uuid.New(), inv.TripID, inv.FareClass, inv.Price, inv.TotalSeats,
		).Scan(&inv.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate inventory for %s class: %w", fc, err)
		}
		trip.Inventories = append(trip.Inventories, inv)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trip update: %w", err)
	}
	return trip, nil
}

// DeleteTrip removes a trip and its inventory rows. Callers must have
// verified the trip has no active bookings.
func (r *TripRepository) DeleteTrip(tripID uuid.UUID) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM fare_class_inventory WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to delete trip inventories: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM trips WHERE id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrTripNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trip deletion: %w", err)
	}
	return nil
}

// ReconcileInventoryCapacity resizes the inventory rows of every non-expired
// trip of a train after its capacity changed. Totals take the new capacity;
// availability is recomputed from the live booked seat count, clamped at
// zero, so the counter never drifts from the seat-label sets even across
// repeated shrink-then-grow edits.
func (r *TripRepository) ReconcileInventoryCapacity(trainID uuid.UUID, train *models.Train) (int64, error) {
	var reconciled int64
	for _, fc := range []models.FareClass{models.FareClassEconomy, models.FareClassBusiness, models.FareClassFirstClass} {
		res, err := r.db.Exec(`
			UPDATE fare_class_inventory fci
			SET total_seats = $1,
			    available_seats = GREATEST(0, $1 - COALESCE(booked.seats, 0)),
			    version = fci.version + 1
			FROM trips t
			LEFT JOIN (
				SELECT trip_id, SUM(seat_count) AS seats
				FROM bookings
				WHERE fare_class = $3 AND NOT is_cancelled
				GROUP BY trip_id
			) booked ON booked.trip_id = t.id
			WHERE fci.trip_id = t.id AND t.train_id = $2 AND NOT t.is_expired
			  AND fci.fare_class = $3 AND fci.total_seats <> $1`,
			train.CapacityFor(fc), trainID, fc)
		if err != nil {
			return reconciled, fmt.Errorf("failed to reconcile %s class inventory: %w", fc, err)
		}
		n, _ := res.RowsAffected()
		reconciled += n
	}
	return reconciled, nil
}
