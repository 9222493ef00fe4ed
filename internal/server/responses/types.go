// Package responses defines API response types used by the wikii HTTP handlers.
package responses

import "time"

// HealthResponse represents the liveness endpoint response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// ReadyResponse represents the readiness endpoint response.
type ReadyResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	IndexPath string    `json:"index_path"`
	IndexAge  float64   `json:"index_age_seconds,omitempty"`
	Documents int       `json:"documents"`
}
