package service

import (
	"context"

	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const auditEntityProcedure = "procedure"

// AuditService writes audit rows inside the caller's transaction
type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, oldValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, newValue interface{}) error {
	return s.write(ctx, tx, procedureID, action, nil, newValue)
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, oldValue, newValue interface{}) error {
	return s.write(ctx, tx, procedureID, action, oldValue, newValue)
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, oldValue interface{}) error {
	return s.write(ctx, tx, procedureID, action, oldValue, nil)
}

func (s *auditService) write(ctx context.Context, tx *gorm.DB, procedureID uuid.UUID, action string, oldValue, newValue interface{}) error {
	metadata := entity.JSON{
		"entity":    auditEntityProcedure,
		"entity_id": procedureID.String(),
		"old_value": oldValue,
		"new_value": newValue,
	}

	auditLog := &entity.AuditLog{
		ProcedureID: &procedureID,
		Action:      action,
		Metadata:    metadata,
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
