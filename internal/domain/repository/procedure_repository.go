package repository

import (
	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProcedureRepository interface {
	Create(db *gorm.DB, procedure *entity.Procedure) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Procedure, error)
	FindAll(db *gorm.DB) ([]entity.Procedure, error)
	FindPending(db *gorm.DB) ([]entity.Procedure, error)
	FindScheduled(db *gorm.DB, room string) ([]entity.Procedure, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.ProcedureStatus) (int64, error)
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
}
