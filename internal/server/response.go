package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Arcaz22/Productivity-Tracker/internal/errors"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
)

// Response is the standard success envelope.
type Response struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Timestamp  int64       `json:"timestamp"`
	Data       interface{} `json:"data,omitempty"`
	Meta       *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination metadata for list responses.
type Meta struct {
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	Total         int64                  `json:"total"`
	FilterApplied map[string]interface{} `json:"filter_applied,omitempty"`
}

// debugMode controls whether 5xx responses expose internal detail.
var debugMode bool

// SetDebugMode toggles detail exposure on 5xx responses. Call once at
// startup.
func SetDebugMode(enabled bool) { debugMode = enabled }

// DebugMode reports the current debug setting.
func DebugMode() bool { return debugMode }

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data, nil)
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, message, data, nil)
}

// RespondPaginated sends a 200 list response with pagination metadata.
func RespondPaginated(c *gin.Context, message string, data interface{}, meta *Meta) {
	respond(c, http.StatusOK, message, data, meta)
}

func respond(c *gin.Context, status int, message string, data interface{}, meta *Meta) {
	c.JSON(status, Response{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().Unix(),
		Data:       data,
		Meta:       meta,
	})
}

// RespondWithError inspects err: an *apperrors.AppError drives the status
// and body; anything else becomes a generic 500 with a fresh error id.
// 5xx detail is logged server-side and suppressed from the body unless
// debug mode is on.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	if appErr.HTTPStatus >= 500 {
		logger.Error("Request failed", map[string]interface{}{
			"error_id": appErr.ErrorID,
			"error":    appErr.Error(),
			"path":     c.Request.URL.Path,
		})
	}

	c.JSON(appErr.HTTPStatus, appErr.ToResponse(debugMode))
}

// AbortWithError sends the error response and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	RespondWithError(c, err)
	c.Abort()
}
