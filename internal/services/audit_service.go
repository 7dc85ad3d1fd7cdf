package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"dealdesk/internal/logger"
	"dealdesk/internal/models"
)

// auditService handles append-only audit recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(actorID, action, resourceType, resourceID, transactionID, ipAddress string, details map[string]any) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit details", "error", err, "action", action)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.AuditEntry{
		ActorID:       actorID,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		TransactionID: transactionID,
		IPAddress:     ipAddress,
		Details:       detailsJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit entry",
			"error", err,
			"actor_id", actorID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// LogTx records an audit entry inside the caller's database transaction.
// Used where the entry must commit atomically with a status change (e.g.
// forward notes); a failure here rolls the whole operation back.
func (s *auditService) LogTx(tx *gorm.DB, entry *models.AuditEntry) error {
	return tx.Create(entry).Error
}
