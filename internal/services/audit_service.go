package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/railline/train-booking-backend/internal/database"
	"github.com/railline/train-booking-backend/internal/models"
	"github.com/railline/train-booking-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// ClientMeta carries request-level metadata into audit records
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// AuditService appends booking and payment events to the audit log. Writes
// are best effort: a failed audit insert is logged and never fails the
// operation it describes.
type AuditService struct {
	repo   *database.AuditLogRepository
	logger *logrus.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo *database.AuditLogRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends one audit entry with JSON-encoded details
func (s *AuditService) Record(action models.AuditAction, userID, entityID *uuid.UUID, details map[string]interface{}, meta ClientMeta) {
	payload, err := json.Marshal(details)
	if err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("Failed to encode audit details")
		payload = nil
	}

	device := utils.ParseUserAgent(meta.UserAgent)
	entry := &models.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		Details:    payload,
		IPAddress:  meta.IPAddress,
		DeviceInfo: device.Summary(),
	}

	if err := s.repo.CreateEntry(entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":  action,
			"user_id": userID,
		}).Warn("Failed to write audit entry")
	}
}

// RecordBookingCreated logs a confirmed booking
func (s *AuditService) RecordBookingCreated(booking *models.Booking, meta ClientMeta) {
	s.Record(models.AuditBookingCreated, &booking.UserID, &booking.ID, map[string]interface{}{
		"booking_reference": booking.BookingReference,
		"trip_id":           booking.TripID,
		"fare_class":        booking.FareClass,
		"seat_labels":       []string(booking.SeatLabels),
		"total_price":       booking.TotalPrice,
	}, meta)
}

// RecordBookingCancelled logs a cancellation and its refund amount
func (s *AuditService) RecordBookingCancelled(booking *models.Booking, refund float64, meta ClientMeta) {
	s.Record(models.AuditBookingCancelled, &booking.UserID, &booking.ID, map[string]interface{}{
		"booking_reference": booking.BookingReference,
		"refund_amount":     refund,
	}, meta)
}

// RecordPaymentResult logs the outcome of a gateway verification
func (s *AuditService) RecordPaymentResult(userID uuid.UUID, reference string, amount float64, verified bool, meta ClientMeta) {
	action := models.AuditPaymentVerified
	if !verified {
		action = models.AuditPaymentFailed
	}
	s.Record(action, &userID, nil, map[string]interface{}{
		"transaction_reference": reference,
		"amount":                amount,
	}, meta)
}
