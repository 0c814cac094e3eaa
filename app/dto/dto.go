// Package dto contains request/response types for the HTTP surface and the
// chat transport wire format.
package dto

// APIResponse is the standard envelope returned by the HTTP endpoints
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    any         `json:"data,omitempty"`
	Error   ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable error code plus optional details
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
