package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/database"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// TrainService manages the train fleet. Capacity edits reconcile the
// inventory rows of the train's active trips so total seat counts track the
// new capacity without disturbing sold seats.
type TrainService struct {
	trainRepo *database.TrainRepository
	tripRepo  *database.TripRepository
	logger    *logrus.Logger
}

// NewTrainService creates a new TrainService
func NewTrainService(trainRepo *database.TrainRepository, tripRepo *database.TripRepository, logger *logrus.Logger) *TrainService {
	return &TrainService{trainRepo: trainRepo, tripRepo: tripRepo, logger: logger}
}

// CreateTrain registers a new train
func (s *TrainService) CreateTrain(req *models.CreateTrainRequest) (*models.Train, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	train, err := s.trainRepo.CreateTrain(req)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"train_id":     train.ID,
		"train_number": train.TrainNumber,
	}).Info("Train registered")
	return train, nil
}

// GetTrain retrieves a train by ID
func (s *TrainService) GetTrain(trainID uuid.UUID) (*models.Train, error) {
	return s.trainRepo.GetTrainByID(trainID)
}

// GetAllTrains lists the fleet
func (s *TrainService) GetAllTrains() ([]models.Train, error) {
	return s.trainRepo.GetAllTrains()
}

// UpdateTrain edits a train and reconciles inventory on its active trips
// when capacities changed
func (s *TrainService) UpdateTrain(trainID uuid.UUID, req *models.UpdateTrainRequest) (*models.Train, error) {
	if req.EconomyCapacity+req.BusinessCapacity+req.FirstClassCapacity == 0 {
		return nil, fmt.Errorf("%w: train must have at least one seat", models.ErrValidation)
	}

	before, err := s.trainRepo.GetTrainByID(trainID)
	if err != nil {
		return nil, err
	}

	train, err := s.trainRepo.UpdateTrain(trainID, req)
	if err != nil {
		return nil, err
	}

	capacityChanged := before.EconomyCapacity != train.EconomyCapacity ||
		before.BusinessCapacity != train.BusinessCapacity ||
		before.FirstClassCapacity != train.FirstClassCapacity

	if capacityChanged {
		reconciled, err := s.tripRepo.ReconcileInventoryCapacity(trainID, train)
		if err != nil {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"train_id":        trainID,
			"reconciled_rows": reconciled,
		}).Info("Train capacity changed, trip inventories reconciled")
	}

	return train, nil
}

// DeleteTrain removes a train with no scheduled trips
func (s *TrainService) DeleteTrain(trainID uuid.UUID) error {
	if err := s.trainRepo.DeleteTrain(trainID); err != nil {
		return err
	}
	s.logger.WithField("train_id", trainID).Info("Train deleted")
	return nil
}
