package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Specs
	mux.Handle("GET /api/v1/specs", chain(http.HandlerFunc(h.ListSpecs)))
	mux.Handle("POST /api/v1/specs", chain(http.HandlerFunc(h.CreateSpec)))
	mux.Handle("GET /api/v1/specs/{id}", chain(http.HandlerFunc(h.GetSpec)))
	mux.Handle("DELETE /api/v1/specs/{id}", chain(http.HandlerFunc(h.DeleteSpec)))

	// Spec Versions
	mux.Handle("GET /api/v1/specs/{id}/versions", chain(http.HandlerFunc(h.ListSpecVersions)))
	mux.Handle("POST /api/v1/specs/{id}/versions", chain(http.HandlerFunc(h.CreateSpecVersion)))
	mux.Handle("GET /api/v1/specs/{id}/versions/{version}", chain(http.HandlerFunc(h.GetSpecVersion)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/specs/{id}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("GET /api/v1/runs/{id}/report", chain(http.HandlerFunc(h.GetRunReport)))
	mux.Handle("POST /api/v1/runs/{id}/cancel", chain(http.HandlerFunc(h.CancelRun)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/specs/{id}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", chain(http.HandlerFunc(h.UpdateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))

	// Parameters
	mux.Handle("GET /api/v1/params", chain(http.HandlerFunc(h.ListParams)))
}
