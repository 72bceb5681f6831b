// Package httpx provides the JSON response envelopes shared by every API
// endpoint.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// SuccessEnvelope is the wire shape of successful API responses.
type SuccessEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// ErrorEnvelope is the wire shape of failed API responses. Details are
// only populated outside production-like environments.
type ErrorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
}

// JSON sends a raw JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success sends a success envelope.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, SuccessEnvelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error sends an error envelope without details.
func Error(w http.ResponseWriter, status int, message string) {
	ErrorWithDetails(w, status, message, nil)
}

// ErrorWithDetails sends an error envelope carrying diagnostic details.
// Callers must strip details in production before reaching this point.
func ErrorWithDetails(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, ErrorEnvelope{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Details:   details,
	})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
