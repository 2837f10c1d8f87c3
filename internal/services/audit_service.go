package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "kasa/internal/errors"
	"kasa/internal/logger"
	"kasa/internal/models"
	"kasa/internal/pagination"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(actorID *uint, action models.AuditAction, objectType, objectID string, metadata map[string]any) {
	var metadataJSON string
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit metadata", "error", err, "action", action)
			metadataJSON = "{}"
		} else {
			metadataJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadataJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"action", action,
			"object_type", objectType,
			"object_id", objectID,
		)
	}
}

// List retrieves audit entries newest first.
func (s *auditService) List(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.AuditLog{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Scopes(pagination.Paginate(page)).
		Order("timestamp DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
