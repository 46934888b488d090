package services

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"budgetify/internal/logger"
	"budgetify/internal/models"
)

type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates an AuditServicer writing to the audit_logs table.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db, log: logger.Get().Named("audit")}
}

// Log appends an audit entry. A failed write is logged and swallowed: the
// mutation it describes has already been committed.
func (s *auditService) Log(userID string, action, resourceType string, resourceID string, ipAddress string, changes map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changes,
	}

	if err := s.db.Create(entry).Error; err != nil {
		s.log.Errorw("audit write failed",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
		return
	}
	s.log.Debugw("audit", "user_id", userID, "action", action, "resource_id", resourceID)
}
