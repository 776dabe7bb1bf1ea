package repository

import (
	"errors"

	"procedure-scheduler/internal/domain/entity"
	domainRepo "procedure-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const priorityOrder = "CASE procedures.priority WHEN 'urgent' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END"

type procedureRepository struct{}

func NewProcedureRepository() domainRepo.ProcedureRepository {
	return &procedureRepository{}
}

func (r *procedureRepository) Create(db *gorm.DB, procedure *entity.Procedure) error {
	return db.Omit("Binding").Create(procedure).Error
}

func (r *procedureRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Procedure, error) {
	var procedure entity.Procedure
	err := db.Preload("Binding").Where("id = ?", id).First(&procedure).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &procedure, nil
}

// FindAll returns every procedure with its binding, used to rebuild the allocator
func (r *procedureRepository) FindAll(db *gorm.DB) ([]entity.Procedure, error) {
	var procedures []entity.Procedure
	err := db.Preload("Binding").Order("created_at ASC").Find(&procedures).Error
	if err != nil {
		return nil, err
	}
	return procedures, nil
}

func (r *procedureRepository) FindPending(db *gorm.DB) ([]entity.Procedure, error) {
	var procedures []entity.Procedure
	err := db.Where("status = ?", entity.ProcedureStatusPending).
		Order(priorityOrder).
		Order("created_at ASC").
		Find(&procedures).Error
	if err != nil {
		return nil, err
	}
	return procedures, nil
}

// FindScheduled returns scheduled procedures ordered by slot. An empty room
// means every room.
func (r *procedureRepository) FindScheduled(db *gorm.DB, room string) ([]entity.Procedure, error) {
	var procedures []entity.Procedure
	query := db.Select("procedures.*").
		Preload("Binding").
		Joins("JOIN slot_bindings ON slot_bindings.procedure_id = procedures.id").
		Where("procedures.status = ?", entity.ProcedureStatusScheduled)
	if room != "" {
		query = query.Where("slot_bindings.room = ?", room)
	}

	err := query.
		Order("slot_bindings.day ASC").
		Order("slot_bindings.hour ASC").
		Order("slot_bindings.room ASC").
		Find(&procedures).Error
	if err != nil {
		return nil, err
	}
	return procedures, nil
}

// UpdateStatus moves a procedure between pending and scheduled ONLY if it is
// currently in the from state. Returns affected rows: 0 means the guard failed.
func (r *procedureRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.ProcedureStatus) (int64, error) {
	result := db.Model(&entity.Procedure{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// Delete removes the procedure and its binding. The binding is deleted
// explicitly so the result does not depend on the store enforcing cascades.
func (r *procedureRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	if err := db.Where("procedure_id = ?", id).Delete(&entity.SlotBinding{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id = ?", id).Delete(&entity.Procedure{})
	return result.RowsAffected, result.Error
}
