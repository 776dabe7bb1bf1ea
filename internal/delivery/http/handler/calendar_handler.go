package handler

import (
	"net/http"

	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/usecase"
	"procedure-scheduler/pkg/response"
	"procedure-scheduler/pkg/validator"
)

type CalendarHandler struct {
	calendarUsecase usecase.CalendarUsecase
	validator       *validator.CustomValidator
}

func NewCalendarHandler(calendarUsecase usecase.CalendarUsecase, validator *validator.CustomValidator) *CalendarHandler {
	return &CalendarHandler{
		calendarUsecase: calendarUsecase,
		validator:       validator,
	}
}

// GetWeek answers GET /calendar?room=&date=&nav=prev|next|today
func (h *CalendarHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := dto.CalendarQuery{
		Room: query.Get("room"),
		Date: query.Get("date"),
		Nav:  query.Get("nav"),
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	week, err := h.calendarUsecase.GetWeek(r.Context(), &req)
	if err != nil {
		writeSlotError(w, err, "Failed to get calendar")
		return
	}

	response.Success(w, http.StatusOK, "Calendar retrieved successfully", week)
}
