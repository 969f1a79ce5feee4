package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/database"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// TripService manages trip scheduling and the listing surface. Listings run
// an expiry sweep first, so a departed trip never shows up even between
// cron runs.
type TripService struct {
	tripRepo    *database.TripRepository
	trainRepo   *database.TrainRepository
	bookingRepo *database.BookingRepository
	minGap      time.Duration
	logger      *logrus.Logger
}

// NewTripService creates a new TripService. minGap is the minimum spacing
// between two trips of the same train.
func NewTripService(
	tripRepo *database.TripRepository,
	trainRepo *database.TrainRepository,
	bookingRepo *database.BookingRepository,
	minGap time.Duration,
	logger *logrus.Logger,
) *TripService {
	return &TripService{
		tripRepo:    tripRepo,
		trainRepo:   trainRepo,
		bookingRepo: bookingRepo,
		minGap:      minGap,
		logger:      logger,
	}
}

// CreateTrip schedules a new trip with per-class pricing
func (s *TripService) CreateTrip(req *models.CreateTripRequest) (*models.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !req.DepartureTime.After(nowUTC()) {
		return nil, models.ErrDepartureInPast
	}

	train, err := s.trainRepo.GetTrainByID(req.TrainID)
	if err != nil {
		return nil, err
	}

	if err := s.checkScheduleGap(train.ID, req.DepartureTime, nil); err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.CreateTrip(req, train)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":        trip.ID,
		"train_number":   train.TrainNumber,
		"source":         trip.Source,
		"destination":    trip.Destination,
		"departure_time": trip.DepartureTime,
	}).Info("Trip scheduled")

	return trip, nil
}

// checkScheduleGap rejects a departure within minGap of another non-expired
// trip of the same train
func (s *TripService) checkScheduleGap(trainID uuid.UUID, departure time.Time, excludeTripID *uuid.UUID) error {
	if s.minGap <= 0 {
		return nil
	}
	count, err := s.tripRepo.CountConflictingTrips(trainID, departure, s.minGap, excludeTripID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.SchedulingConflictError{
			TrainID:     trainID.String(),
			MinGapHours: int(s.minGap.Hours()),
		}
	}
	return nil
}

// GetAvailableTrips lists bookable trips, soonest first. Expired trips are
// flagged before the query runs so the listing and the expired flag agree.
func (s *TripService) GetAvailableTrips() ([]models.TripSummary, error) {
	now := nowUTC()
	if _, err := s.tripRepo.MarkExpiredTrips(now); err != nil {
		return nil, err
	}

	trips, err := s.tripRepo.GetAvailableTrips(now)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.TripSummary, 0, len(trips))
	for _, t := range trips {
		summaries = append(summaries, models.TripSummary{
			ID:            t.ID,
			TrainNumber:   t.TrainNumber,
			TrainName:     t.TrainName,
			Source:        t.Source,
			Destination:   t.Destination,
			DepartureTime: t.DepartureTime,
			Inventories:   t.Inventories,
		})
	}
	return summaries, nil
}

// GetAllTrips lists every trip including expired ones, for administration
func (s *TripService) GetAllTrips() ([]models.Trip, error) {
	return s.tripRepo.GetAllTrips()
}

// GetTrip retrieves a trip with its inventories
func (s *TripService) GetTrip(tripID uuid.UUID) (*models.Trip, error) {
	return s.tripRepo.GetTripByID(tripID)
}

// MarkExpiredTrips flags departed trips and returns how many were flagged
func (s *TripService) MarkExpiredTrips() (int64, error) {
	n, err := s.tripRepo.MarkExpiredTrips(nowUTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.WithField("count", n).Info("Marked expired trips")
	}
	return n, nil
}

// UpdateTrip edits a trip that has no active bookings
func (s *TripService) UpdateTrip(tripID uuid.UUID, req *models.UpdateTripRequest) (*models.Trip, error) {
	createShape := models.CreateTripRequest{
		TrainID:       uuid.Nil, // filled after loading the trip
		Source:        req.Source,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		Pricings:      req.Pricings,
	}

	trip, err := s.tripRepo.GetTripByID(tripID)
	if err != nil {
		return nil, err
	}
	createShape.TrainID = trip.TrainID

	if err := createShape.Validate(); err != nil {
		return nil, err
	}
	if !req.DepartureTime.After(nowUTC()) {
		return nil, models.ErrDepartureInPast
	}

	hasBookings, err := s.bookingRepo.HasActiveBookingsForTrip(tripID)
	if err != nil {
		return nil, err
	}
	if hasBookings {
		return nil, models.ErrTripHasBookings
	}

	if err := s.checkScheduleGap(trip.TrainID, req.DepartureTime, &tripID); err != nil {
		return nil, err
	}

	train, err := s.trainRepo.GetTrainByID(trip.TrainID)
	if err != nil {
		return nil, err
	}

	updated, err := s.tripRepo.UpdateTrip(tripID, req, train)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("trip_id", tripID).Info("Trip updated")
	return updated, nil
}

// DeleteTrip removes a trip that has no active bookings
func (s *TripService) DeleteTrip(tripID uuid.UUID) error {
	hasBookings, err := s.bookingRepo.HasActiveBookingsForTrip(tripID)
	if err != nil {
		return err
	}
	if hasBookings {
		return models.ErrTripHasBookings
	}

	if err := s.tripRepo.DeleteTrip(tripID); err != nil {
		return err
	}

	s.logger.WithField("trip_id", tripID).Info("Trip deleted")
	return nil
}
