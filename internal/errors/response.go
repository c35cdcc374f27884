package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure returned to clients.
type ErrorResponse struct {
	StatusCode int            `json:"status_code"`
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	ErrorID    string         `json:"error_id"`
	Timestamp  int64          `json:"timestamp"`
	Retryable  bool           `json:"retryable"`
	Details    map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse. For 5xx-class errors
// the message and details are suppressed unless debug is set; the error id
// still lets operators find the full detail in the server logs.
func (e *AppError) ToResponse(debug bool) ErrorResponse {
	resp := ErrorResponse{
		StatusCode: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		ErrorID:    e.ErrorID,
		Timestamp:  e.Timestamp,
		Retryable:  e.Retryable,
		Details:    e.Details,
	}
	if e.HTTPStatus >= 500 && !debug {
		resp.Message = "Internal server error"
		resp.Details = nil
	}
	return resp
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
