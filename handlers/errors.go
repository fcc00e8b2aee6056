package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeInvalidPeriod       ErrorCode = "invalid_period"
	ErrorCodeInvalidComparison   ErrorCode = "invalid_comparison"
	ErrorCodeDataUnavailable     ErrorCode = "data_unavailable"
	ErrorCodeInternalServerError ErrorCode = "internal_server_error"
)

type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details any, statusCode int) APIError {
	return APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

func respondWithError(w http.ResponseWriter, apiErr APIError) {
	respondWithJSON(w, apiErr.StatusCode, apiErr)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
