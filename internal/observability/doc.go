// Package observability provides structured logging, Prometheus metrics,
// and component health checking for the backend.
//
// It serves /metrics on the metrics port and /health plus /ready on the
// operational health port. These are deployment-facing endpoints; the
// versioned /api/v1/health route lives in the api package.
package observability
