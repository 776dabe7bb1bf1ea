package handler

import (
	"encoding/json"
	"net/http"

	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/usecase"
	"procedure-scheduler/pkg/response"
	"procedure-scheduler/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ProcedureHandler struct {
	procedureUsecase usecase.ProcedureUsecase
	validator        *validator.CustomValidator
}

func NewProcedureHandler(procedureUsecase usecase.ProcedureUsecase, validator *validator.CustomValidator) *ProcedureHandler {
	return &ProcedureHandler{
		procedureUsecase: procedureUsecase,
		validator:        validator,
	}
}

func (h *ProcedureHandler) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProcedureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	procedure, err := h.procedureUsecase.CreateProcedure(r.Context(), &req)
	if err != nil {
		writeSlotError(w, err, "Failed to create procedure")
		return
	}

	response.Success(w, http.StatusCreated, "Procedure created successfully", procedure)
}

func (h *ProcedureHandler) GetProcedure(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureIDFromPath(w, r)
	if !ok {
		return
	}

	procedure, err := h.procedureUsecase.GetProcedure(r.Context(), procedureID)
	if err != nil {
		writeSlotError(w, err, "Failed to get procedure")
		return
	}

	response.Success(w, http.StatusOK, "Procedure retrieved successfully", procedure)
}

func (h *ProcedureHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	procedures, err := h.procedureUsecase.ListPending(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get pending procedures")
		return
	}

	response.Success(w, http.StatusOK, "Pending procedures retrieved successfully", procedures)
}

func (h *ProcedureHandler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	procedures, err := h.procedureUsecase.ListScheduled(r.Context(), r.URL.Query().Get("room"))
	if err != nil {
		writeSlotError(w, err, "Failed to get scheduled procedures")
		return
	}

	response.Success(w, http.StatusOK, "Scheduled procedures retrieved successfully", procedures)
}

func (h *ProcedureHandler) DeleteProcedure(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.procedureUsecase.DeleteProcedure(r.Context(), procedureID); err != nil {
		writeSlotError(w, err, "Failed to delete procedure")
		return
	}

	response.Success(w, http.StatusOK, "Procedure deleted successfully", nil)
}

func procedureIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	procedureID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid procedure ID", nil)
		return uuid.Nil, false
	}
	return procedureID, true
}
