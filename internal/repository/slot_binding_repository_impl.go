package repository

import (
	"errors"

	"procedure-scheduler/internal/domain/entity"
	domainRepo "procedure-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type slotBindingRepository struct{}

func NewSlotBindingRepository() domainRepo.SlotBindingRepository {
	return &slotBindingRepository{}
}

// Create inserts a binding. The unique index on (day, hour, room) turns this
// into a bind-if-free: a taken slot fails with a duplicate key error.
func (r *slotBindingRepository) Create(db *gorm.DB, binding *entity.SlotBinding) error {
	return db.Create(binding).Error
}

func (r *slotBindingRepository) FindByProcedureID(db *gorm.DB, procedureID uuid.UUID) (*entity.SlotBinding, error) {
	var binding entity.SlotBinding
	err := db.Where("procedure_id = ?", procedureID).First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &binding, nil
}

func (r *slotBindingRepository) FindBySlot(db *gorm.DB, slot entity.Slot) (*entity.SlotBinding, error) {
	var binding entity.SlotBinding
	err := db.Where("day = ? AND hour = ? AND room = ?", entity.DateOf(slot.Day), slot.Hour, slot.Room).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &binding, nil
}

// UpdateSlot moves an existing binding. Returns affected rows: 0 = no binding.
func (r *slotBindingRepository) UpdateSlot(db *gorm.DB, procedureID uuid.UUID, slot entity.Slot) (int64, error) {
	result := db.Model(&entity.SlotBinding{}).
		Where("procedure_id = ?", procedureID).
		Updates(map[string]interface{}{
			"day":  entity.DateOf(slot.Day),
			"hour": slot.Hour,
			"room": slot.Room,
		})
	return result.RowsAffected, result.Error
}

func (r *slotBindingRepository) DeleteByProcedureID(db *gorm.DB, procedureID uuid.UUID) (int64, error) {
	result := db.Where("procedure_id = ?", procedureID).Delete(&entity.SlotBinding{})
	return result.RowsAffected, result.Error
}
