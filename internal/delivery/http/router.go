package http

import (
	"net/http"

	"procedure-scheduler/internal/delivery/http/handler"
	"procedure-scheduler/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	procedureHandler  *handler.ProcedureHandler
	scheduleHandler   *handler.ScheduleHandler
	calendarHandler   *handler.CalendarHandler
	auditLogHandler   *handler.AuditLogHandler
	loggingMiddleware *middleware.LoggingMiddleware
	corsMiddleware    *middleware.CORSMiddleware
}

func NewRouter(
	procedureHandler *handler.ProcedureHandler,
	scheduleHandler *handler.ScheduleHandler,
	calendarHandler *handler.CalendarHandler,
	auditLogHandler *handler.AuditLogHandler,
	loggingMiddleware *middleware.LoggingMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		procedureHandler:  procedureHandler,
		scheduleHandler:   scheduleHandler,
		calendarHandler:   calendarHandler,
		auditLogHandler:   auditLogHandler,
		loggingMiddleware: loggingMiddleware,
		corsMiddleware:    corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Procedures (static paths before {id})
	api.HandleFunc("/procedures", r.procedureHandler.CreateProcedure).Methods(http.MethodPost)
	api.HandleFunc("/procedures/pending", r.procedureHandler.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/procedures/scheduled", r.procedureHandler.ListScheduled).Methods(http.MethodGet)
	api.HandleFunc("/procedures/{id}", r.procedureHandler.GetProcedure).Methods(http.MethodGet)
	api.HandleFunc("/procedures/{id}", r.procedureHandler.DeleteProcedure).Methods(http.MethodDelete)

	// Slot binding
	api.HandleFunc("/procedures/{id}/schedule", r.scheduleHandler.Schedule).Methods(http.MethodPost)
	api.HandleFunc("/procedures/{id}/schedule", r.scheduleHandler.Reschedule).Methods(http.MethodPut)
	api.HandleFunc("/procedures/{id}/schedule", r.scheduleHandler.Release).Methods(http.MethodDelete)

	// Slots and rooms
	api.HandleFunc("/slots", r.scheduleHandler.GetSlot).Methods(http.MethodGet)
	api.HandleFunc("/rooms", r.scheduleHandler.GetRooms).Methods(http.MethodGet)

	// Calendar
	api.HandleFunc("/calendar", r.calendarHandler.GetWeek).Methods(http.MethodGet)

	// Audit logs
	api.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	api.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Preflight: gives OPTIONS a matched route so the middleware chain runs
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(r.preflight)

	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func (r *Router) preflight(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
