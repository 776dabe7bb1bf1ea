package dto

import (
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

// Response DTOs

type AuditLogResponse struct {
	ID          int64       `json:"id"`
	ProcedureID *uuid.UUID  `json:"procedure_id,omitempty"`
	Action      string      `json:"action"`
	Metadata    entity.JSON `json:"metadata"`
	CreatedAt   time.Time   `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int                `json:"total"`
}
