// internal/common/utils/response.go
// Standardized API responses ensure consistency across all endpoints

package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the standard error response shape: a machine-readable kind
// plus a human-readable message. Validation failures additionally carry the
// per-field error list.
type ErrorBody struct {
	Kind   string   `json:"kind,omitempty"`
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// RespondWithJSON sends a JSON response with the specified status code and payload
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Error marshaling JSON"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithError sends an error response with the specified status code and message
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorBody{Error: message})
}

// RespondWithErrorKind sends an error response tagged with a machine-readable kind
func RespondWithErrorKind(w http.ResponseWriter, code int, kind, message string) {
	RespondWithJSON(w, code, ErrorBody{Kind: kind, Error: message})
}

// RespondWithValidationErrors sends a 400 carrying the full error list
func RespondWithValidationErrors(w http.ResponseWriter, errs []string) {
	RespondWithJSON(w, http.StatusBadRequest, ErrorBody{
		Kind:   "validation",
		Error:  "request validation failed",
		Errors: errs,
	})
}
