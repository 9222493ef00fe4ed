// Package handlers contains the HTTP handlers of the wikii query service.
//
// This package provides handlers for:
//   - the substring search endpoint
//   - liveness and readiness probes
//   - shared response helper functions
//
// Errors are classified with the foundation/errors package and written through
// its HTTP adapter so status codes stay consistent across endpoints.
package handlers
