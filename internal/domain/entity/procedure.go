package entity

import (
	"time"

	"github.com/google/uuid"
)

// Priority is the clinical urgency of a procedure order
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for the pending queue, lower first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityNormal:
		return 1
	default:
		return 2
	}
}

// ProcedureStatus is the explicit pending/scheduled partition of a procedure
type ProcedureStatus string

const (
	ProcedureStatusPending   ProcedureStatus = "pending"
	ProcedureStatusScheduled ProcedureStatus = "scheduled"
)

// Procedure represents an imaging/procedure order
// Binding is set only while Status is scheduled
type Procedure struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PatientName   string          `gorm:"type:varchar(255);not null" json:"patient_name"`
	ProcedureName string          `gorm:"type:varchar(255);not null" json:"procedure_name"`
	Priority      Priority        `gorm:"type:varchar(16);not null;index" json:"priority"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	Status        ProcedureStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Binding *SlotBinding `gorm:"foreignKey:ProcedureID;constraint:OnDelete:CASCADE" json:"binding,omitempty"`
}

func (Procedure) TableName() string {
	return "procedures"
}

// IsPending checks if procedure is waiting for a slot
func (p *Procedure) IsPending() bool {
	return p.Status == ProcedureStatusPending
}

// IsScheduled checks if procedure is bound to a slot
func (p *Procedure) IsScheduled() bool {
	return p.Status == ProcedureStatusScheduled
}

// Slot returns the bound slot, if any
func (p *Procedure) Slot() (Slot, bool) {
	if p.Binding == nil {
		return Slot{}, false
	}
	return p.Binding.Slot(), true
}

// Clone returns a copy that shares no memory with p.
func (p *Procedure) Clone() Procedure {
	out := *p
	if p.Binding != nil {
		b := *p.Binding
		out.Binding = &b
	}
	return out
}
