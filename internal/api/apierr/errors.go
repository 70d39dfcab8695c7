package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeAdminDisabled      = "ADMIN_DISABLED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeWordExists         = "WORD_EXISTS"
	CodeWordNotFound       = "WORD_NOT_FOUND"
	CodeInvalidWord        = "INVALID_WORD"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Word library errors
	case errors.Is(err, model.ErrWordExists):
		return &httpError{http.StatusConflict, APIError{CodeWordExists, "Word already exists"}}
	case errors.Is(err, model.ErrWordNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeWordNotFound, "Word not found"}}
	case errors.Is(err, model.ErrInvalidWord):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidWord, "Words may contain only letters, spaces, hyphens and apostrophes"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}

	// Admin gate errors
	case errors.Is(err, auth.ErrAdminDisabled):
		return &httpError{http.StatusForbidden, APIError{CodeAdminDisabled, "Admin access is disabled"}}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid admin password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
