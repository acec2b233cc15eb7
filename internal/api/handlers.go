package api

import (
	"net/http"

	"github.com/stockresearch/backend/internal/observability"
)

const (
	dbHealthy   = "healthy"
	dbUnhealthy = "unhealthy"
)

// handleHealth reports service liveness and database reachability
// @Summary Health check
// @Description Returns application status and whether the database answers a trivial query. Responds 200 even when the database is unreachable so the process itself stays reportable.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	observability.GetMetrics().HealthChecksTotal.Inc()

	database := dbHealthy
	if err := s.db.Probe(r.Context()); err != nil {
		s.logger.Error("database health check failed",
			"error", err.Error())
		observability.GetMetrics().HealthCheckFailures.Inc()
		database = dbUnhealthy
	}

	// A failed probe does not fail the endpoint; the body carries the detail.
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Database: database,
	})
}
