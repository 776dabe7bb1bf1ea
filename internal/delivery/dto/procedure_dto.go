package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateProcedureRequest struct {
	PatientName   string `json:"patient_name" validate:"required,notblank,max=255"`
	ProcedureName string `json:"procedure_name" validate:"required,notblank,max=255"`
	Priority      string `json:"priority" validate:"required,oneof=urgent normal low"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// Response DTOs

type SlotResponse struct {
	Day       string `json:"day"`
	Hour      int    `json:"hour"`
	Time      string `json:"time"`
	Room      string `json:"room"`
	RoomLabel string `json:"room_label,omitempty"`
}

type ProcedureResponse struct {
	ID            uuid.UUID     `json:"id"`
	PatientName   string        `json:"patient_name"`
	ProcedureName string        `json:"procedure_name"`
	Priority      string        `json:"priority"`
	Notes         string        `json:"notes,omitempty"`
	Status        string        `json:"status"`
	Slot          *SlotResponse `json:"slot,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type ProcedureListResponse struct {
	Procedures []ProcedureResponse `json:"procedures"`
	Total      int                 `json:"total"`
}
