package api

// HealthResponse reports application liveness and the database probe result.
// Status is always "ok" when the process can answer at all; Database narrows
// the probe outcome to "healthy" or "unhealthy".
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"healthy"`
}
