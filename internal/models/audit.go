package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of event recorded in the audit log
type AuditAction string

const (
	AuditBookingCreated   AuditAction = "booking_created"
	AuditBookingCancelled AuditAction = "booking_cancelled"
	AuditPaymentInit      AuditAction = "payment_initialized"
	AuditPaymentVerified  AuditAction = "payment_verified"
	AuditPaymentFailed    AuditAction = "payment_failed"
	AuditTripCreated      AuditAction = "trip_created"
	AuditTripUpdated      AuditAction = "trip_updated"
	AuditTripDeleted      AuditAction = "trip_deleted"
	AuditTrainUpdated     AuditAction = "train_updated"
)

// AuditEntry is one append-only record of a booking or payment event.
// Details holds action-specific fields serialized as JSON.
type AuditEntry struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	UserID     *uuid.UUID  `json:"user_id,omitempty" db:"user_id"`
	Action     AuditAction `json:"action" db:"action"`
	EntityID   *uuid.UUID  `json:"entity_id,omitempty" db:"entity_id"`
	Details    []byte      `json:"details,omitempty" db:"details"`
	IPAddress  string      `json:"ip_address" db:"ip_address"`
	DeviceInfo string      `json:"device_info" db:"device_info"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
