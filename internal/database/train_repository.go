package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/railline/train-booking-backend/internal/models"
)

// TrainRepository handles train CRUD operations
type TrainRepository struct {
	db *sqlx.DB
}

// NewTrainRepository creates a new TrainRepository
func NewTrainRepository(db *sqlx.DB) *TrainRepository {
	return &TrainRepository{db: db}
}

// CreateTrain registers a new train
func (r *TrainRepository) CreateTrain(req *models.CreateTrainRequest) (*models.Train, error) {
	train := &models.Train{
		TrainNumber:        req.TrainNumber,
		Name:               req.Name,
		Description:        req.Description,
		EconomyCapacity:    req.EconomyCapacity,
		BusinessCapacity:   req.BusinessCapacity,
		FirstClassCapacity: req.FirstClassCapacity,
	}

	err := r.db.QueryRowx(`
		INSERT INTO trains (
			id, train_number, name, description,
			economy_capacity, business_capacity, first_class_capacity,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		uuid.New(), train.TrainNumber, train.Name, train.Description,
		train.EconomyCapacity, train.BusinessCapacity, train.FirstClassCapacity,
	).Scan(&train.ID, &train.CreatedAt, &train.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: train number %s already registered", models.ErrValidation, train.TrainNumber)
		}
		return nil, fmt.Errorf("failed to create train: %w", err)
	}

	return train, nil
}

// GetTrainByID retrieves a train by ID
func (r *TrainRepository) GetTrainByID(id uuid.UUID) (*models.Train, error) {
	train := &models.Train{}
	query := `
		SELECT id, train_number, name, description,
		       economy_capacity, business_capacity, first_class_capacity,
		       created_at, updated_at
		FROM trains WHERE id = $1`

	err := r.db.Get(train, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to get train: %w", err)
	}
	return train, nil
}

// GetAllTrains retrieves all registered trains
func (r *TrainRepository) GetAllTrains() ([]models.Train, error) {
	var trains []models.Train
	query := `
		SELECT id, train_number, name, description,
		       economy_capacity, business_capacity, first_class_capacity,
		       created_at, updated_at
		FROM trains ORDER BY train_number`

	if err := r.db.Select(&trains, query); err != nil {
		return nil, fmt.Errorf("failed to get trains: %w", err)
	}
	return trains, nil
}

// UpdateTrain updates a train's metadata and capacities
func (r *TrainRepository) UpdateTrain(id uuid.UUID, req *models.UpdateTrainRequest) (*models.Train, error) {
	train := &models.Train{ID: id}
	err := r.db.QueryRowx(`
		UPDATE trains
		SET name = $1, description = $2,
		    economy_capacity = $3, business_capacity = $4, first_class_capacity = $5,
		    updated_at = NOW()
		WHERE id = $6
		RETURNING train_number, name, description,
		          economy_capacity, business_capacity, first_class_capacity,
		          created_at, updated_at`,
		req.Name, req.Description,
		req.EconomyCapacity, req.BusinessCapacity, req.FirstClassCapacity, id,
	).Scan(&train.TrainNumber, &train.Name, &train.Description,
		&train.EconomyCapacity, &train.BusinessCapacity, &train.FirstClassCapacity,
		&train.CreatedAt, &train.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to update train: %w", err)
	}
	return train, nil
}

// DeleteTrain removes a train that has no trips
func (r *TrainRepository) DeleteTrain(id uuid.UUID) error {
	var tripCount int
	err := r.db.Get(&tripCount, `SELECT COUNT(*) FROM trips WHERE train_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to count trips for train: %w", err)
	}
	if tripCount > 0 {
		return fmt.Errorf("%w: train has %d scheduled trips", models.ErrValidation, tripCount)
	}

	res, err := r.db.Exec(`DELETE FROM trains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete train: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrTrainNotFound
	}
	return nil
}
