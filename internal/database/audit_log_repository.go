package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/railline/train-booking-backend/internal/models"
)

// AuditLogRepository appends booking and payment events to the audit log
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// CreateEntry appends an audit record. Details must already be JSON-encoded.
func (r *AuditLogRepository) CreateEntry(entry *models.AuditEntry) error {
	_, err := r.db.Exec(`
		INSERT INTO audit_log (id, user_id, action, entity_id, details, ip_address, device_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		uuid.New(), entry.UserID, entry.Action, entry.EntityID,
		entry.Details, entry.IPAddress, entry.DeviceInfo)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// GetEntriesByUserID retrieves a user's audit trail, newest first
func (r *AuditLogRepository) GetEntriesByUserID(userID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var entries []models.AuditEntry
	query := `
		SELECT id, user_id, action, entity_id, details, ip_address, device_info, created_at
		FROM audit_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.Select(&entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	return entries, nil
}
