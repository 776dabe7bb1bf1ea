package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/usecase"
	"procedure-scheduler/pkg/response"
	"procedure-scheduler/pkg/validator"
)

type ScheduleHandler struct {
	schedulingUsecase usecase.SchedulingUsecase
	validator         *validator.CustomValidator
}

func NewScheduleHandler(schedulingUsecase usecase.SchedulingUsecase, validator *validator.CustomValidator) *ScheduleHandler {
	return &ScheduleHandler{
		schedulingUsecase: schedulingUsecase,
		validator:         validator,
	}
}

func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureIDFromPath(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeScheduleRequest(w, r)
	if !ok {
		return
	}

	procedure, err := h.schedulingUsecase.Schedule(r.Context(), procedureID, req)
	if err != nil {
		writeSlotError(w, err, "Failed to schedule procedure")
		return
	}

	response.Success(w, http.StatusOK, "Procedure scheduled successfully", procedure)
}

func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureIDFromPath(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeScheduleRequest(w, r)
	if !ok {
		return
	}

	procedure, err := h.schedulingUsecase.Reschedule(r.Context(), procedureID, req)
	if err != nil {
		writeSlotError(w, err, "Failed to reschedule procedure")
		return
	}

	response.Success(w, http.StatusOK, "Procedure rescheduled successfully", procedure)
}

func (h *ScheduleHandler) Release(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureIDFromPath(w, r)
	if !ok {
		return
	}

	procedure, err := h.schedulingUsecase.Release(r.Context(), procedureID)
	if err != nil {
		writeSlotError(w, err, "Failed to release slot")
		return
	}

	response.Success(w, http.StatusOK, "Slot released successfully", procedure)
}

// GetSlot answers GET /slots?day=&hour=&room= (or ?time=&room=)
func (h *ScheduleHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := dto.ScheduleRequest{
		Day:  query.Get("day"),
		Time: query.Get("time"),
		Room: query.Get("room"),
	}
	if raw := query.Get("hour"); raw != "" {
		hour, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid hour", nil)
			return
		}
		req.Hour = &hour
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slot, err := h.schedulingUsecase.GetSlot(r.Context(), &req)
	if err != nil {
		writeSlotError(w, err, "Failed to get slot")
		return
	}

	response.Success(w, http.StatusOK, "Slot retrieved successfully", slot)
}

func (h *ScheduleHandler) GetRooms(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Rooms retrieved successfully", h.schedulingUsecase.GetRooms(r.Context()))
}

func (h *ScheduleHandler) decodeScheduleRequest(w http.ResponseWriter, r *http.Request) (*dto.ScheduleRequest, bool) {
	var req dto.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return nil, false
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return nil, false
	}
	return &req, true
}
