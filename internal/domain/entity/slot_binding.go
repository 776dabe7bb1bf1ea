package entity

import (
	"time"

	"github.com/google/uuid"
)

// SlotBinding binds a scheduled procedure to one (day, hour, room) slot.
// The composite unique index is what makes a bind insert behave as bind-if-free.
type SlotBinding struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProcedureID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"procedure_id"`
	Day         time.Time `gorm:"type:date;not null;uniqueIndex:idx_slot_bindings_slot,priority:1" json:"day"`
	Hour        int       `gorm:"not null;uniqueIndex:idx_slot_bindings_slot,priority:2" json:"hour"`
	Room        string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_slot_bindings_slot,priority:3;index" json:"room"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SlotBinding) TableName() string {
	return "slot_bindings"
}

// Slot returns the slot held by the binding
func (b *SlotBinding) Slot() Slot {
	return NewSlot(b.Day, b.Hour, b.Room)
}
