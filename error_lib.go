package ginblog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type ApiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Status    int    `json:"-"`
}

var (
	ErrBadRequest   = ApiError{ErrorCode: "BAD_REQUEST", Message: "%s", Status: http.StatusBadRequest}
	ErrUnauthorized = ApiError{ErrorCode: "UNAUTHORIZED", Message: "authentication required", Status: http.StatusUnauthorized}
	ErrForbidden    = ApiError{ErrorCode: "FORBIDDEN", Message: "operation not permitted", Status: http.StatusForbidden}
	ErrNotFound     = ApiError{ErrorCode: "NOT_FOUND", Message: "%s not found", Status: http.StatusNotFound}
	ErrConflict     = ApiError{ErrorCode: "CONFLICT", Message: "%s", Status: http.StatusConflict}
)

// New returns a copy of e with its message formatted using messages.
// Without arguments the error is returned unchanged.
func (e ApiError) New(messages ...string) ApiError {
	if len(messages) == 0 {
		return e
	}
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		ErrorCode: e.ErrorCode,
		Message:   message,
		Status:    e.Status,
	}
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// Is matches errors by code so formatted copies still compare equal to the
// package level values.
func (e ApiError) Is(target error) bool {
	var other ApiError
	if !errors.As(target, &other) {
		return false
	}
	return e.ErrorCode == other.ErrorCode
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func SendError(c *gin.Context, err error) {
	var customErr ApiError
	switch {
	case errors.As(err, &customErr):
	case errors.Is(err, mongo.ErrNoDocuments):
		customErr = ErrNotFound.New("resource")
	default:
		slog.ErrorContext(c.Request.Context(), "Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("err", err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			ErrorCode: "INTERNAL_SERVER_ERROR",
			Message:   "An unknown error occurred",
		})
		return
	}

	status := customErr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		ErrorCode: customErr.ErrorCode,
		Message:   customErr.Message,
	})
}
