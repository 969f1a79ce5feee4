package services

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService runs the periodic trip expiry sweep in the background. The
// sweep is idempotent, so overlap with the sweep triggered by listing
// queries is harmless.
type CronService struct {
	cron        *cron.Cron
	tripService *TripService
	sweepSpec   string
	logger      *logrus.Logger
}

// NewCronService creates a new CronService. sweepSpec is a six-field cron
// expression with a seconds column.
func NewCronService(tripService *TripService, sweepSpec string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:        cron.New(cron.WithSeconds()),
		tripService: tripService,
		sweepSpec:   sweepSpec,
		logger:      logger,
	}
}

// Start registers the sweep job and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.sweepSpec, s.runExpirySweep)
	if err != nil {
		return fmt.Errorf("failed to schedule trip expiry sweep: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("spec", s.sweepSpec).Info("Trip expiry sweep scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler stopped")
}

func (s *CronService) runExpirySweep() {
	n, err := s.tripService.MarkExpiredTrips()
	if err != nil {
		s.logger.WithError(err).Error("Trip expiry sweep failed")
		return
	}
	if n > 0 {
		s.logger.WithField("expired", n).Info("Trip expiry sweep completed")
	}
}
