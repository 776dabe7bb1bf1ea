package converter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/domain/entity"
)

// CreateProcedureRequestToEntity builds a new procedure from the intake form.
// The id is assigned by the caller.
func CreateProcedureRequestToEntity(req *dto.CreateProcedureRequest) *entity.Procedure {
	return &entity.Procedure{
		PatientName:   strings.TrimSpace(req.PatientName),
		ProcedureName: strings.TrimSpace(req.ProcedureName),
		Priority:      entity.Priority(req.Priority),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        entity.ProcedureStatusPending,
	}
}

// SlotToResponse converts a slot to SlotResponse DTO
func SlotToResponse(slot entity.Slot, d allocator.Domain) *dto.SlotResponse {
	return &dto.SlotResponse{
		Day:       slot.Day.Format(entity.SlotDateLayout),
		Hour:      slot.Hour,
		Time:      slot.Time(),
		Room:      slot.Room,
		RoomLabel: d.RoomLabel(slot.Room),
	}
}

// ProcedureToResponse converts a Procedure entity to ProcedureResponse DTO
func ProcedureToResponse(p *entity.Procedure, d allocator.Domain) *dto.ProcedureResponse {
	if p == nil {
		return nil
	}

	resp := &dto.ProcedureResponse{
		ID:            p.ID,
		PatientName:   p.PatientName,
		ProcedureName: p.ProcedureName,
		Priority:      string(p.Priority),
		Notes:         p.Notes,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if slot, ok := p.Slot(); ok {
		resp.Slot = SlotToResponse(slot, d)
	}
	return resp
}

// ProceduresToResponses converts a slice of Procedure entities to slice of ProcedureResponse DTOs
func ProceduresToResponses(procedures []entity.Procedure, d allocator.Domain) []dto.ProcedureResponse {
	responses := make([]dto.ProcedureResponse, len(procedures))
	for i := range procedures {
		responses[i] = *ProcedureToResponse(&procedures[i], d)
	}
	return responses
}

// ScheduleRequestToSlot reads the target slot from either day+hour or the
// composite time string. Giving both is an error unless they agree.
func ScheduleRequestToSlot(req *dto.ScheduleRequest) (entity.Slot, error) {
	var (
		day     time.Time
		hour    int
		hasPair = req.Day != "" || req.Hour != nil
	)

	if hasPair {
		if req.Day == "" || req.Hour == nil {
			return entity.Slot{}, errors.New("day and hour must be given together")
		}
		parsed, err := time.Parse(entity.SlotDateLayout, req.Day)
		if err != nil {
			return entity.Slot{}, fmt.Errorf("invalid day %q", req.Day)
		}
		day, hour = parsed, *req.Hour
	}

	if req.Time != "" {
		parsedDay, parsedHour, err := entity.DecodeSlotTime(req.Time)
		if err != nil {
			return entity.Slot{}, err
		}
		if hasPair && (!parsedDay.Equal(day) || parsedHour != hour) {
			return entity.Slot{}, errors.New("time does not match day and hour")
		}
		day, hour = parsedDay, parsedHour
	} else if !hasPair {
		return entity.Slot{}, errors.New("either day and hour or time is required")
	}

	return entity.NewSlot(day, hour, req.Room), nil
}
