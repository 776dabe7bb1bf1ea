package repository

import (
	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotBindingRepository interface {
	Create(db *gorm.DB, binding *entity.SlotBinding) error
	FindByProcedureID(db *gorm.DB, procedureID uuid.UUID) (*entity.SlotBinding, error)
	FindBySlot(db *gorm.DB, slot entity.Slot) (*entity.SlotBinding, error)
	UpdateSlot(db *gorm.DB, procedureID uuid.UUID, slot entity.Slot) (int64, error)
	DeleteByProcedureID(db *gorm.DB, procedureID uuid.UUID) (int64, error)
}
