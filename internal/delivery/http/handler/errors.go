package handler

import (
	"errors"
	"net/http"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/service"
	"procedure-scheduler/internal/usecase"
	"procedure-scheduler/pkg/response"
)

// writeSlotError maps allocator and usecase errors to HTTP responses.
// fallback is the message for unexpected errors.
func writeSlotError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, allocator.ErrInvalidSlot):
		response.BadRequest(w, "Invalid slot", err.Error())
	case errors.Is(err, usecase.ErrInvalidProcedure):
		response.BadRequest(w, "Invalid procedure", err.Error())
	case errors.Is(err, allocator.ErrProcedureNotFound):
		response.NotFound(w, "Procedure not found")
	case errors.Is(err, allocator.ErrSlotTaken):
		response.Conflict(w, "Slot is already taken", err.Error())
	case errors.Is(err, allocator.ErrNotPending):
		response.Conflict(w, "Procedure is not pending", nil)
	case errors.Is(err, allocator.ErrNotScheduled):
		response.Conflict(w, "Procedure is not scheduled", nil)
	case errors.Is(err, service.ErrSlotLocked):
		response.Conflict(w, "Slot is being booked by another request, try again", nil)
	case errors.Is(err, usecase.ErrPersistence):
		response.InternalServerError(w, fallback+", changes were rolled back")
	default:
		response.InternalServerError(w, fallback)
	}
}
