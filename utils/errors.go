package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError represents an application error with an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Domain errors of the ledger. Workflows return these (possibly wrapped); the
// HTTP layer translates them with RespondError.
var (
	ErrInsufficientFunds          = NewAppError(http.StatusUnprocessableEntity, "Insufficient wallet balance", nil)
	ErrInsufficientOrganizerFunds = NewAppError(http.StatusUnprocessableEntity, "Organizer wallet cannot cover the refund", nil)
	ErrInventoryExhausted         = NewAppError(http.StatusConflict, "Event is sold out", nil)
	ErrAlreadyConsumed            = NewAppError(http.StatusConflict, "Ticket has already been consumed", nil)
	ErrAlreadyRefunded            = NewAppError(http.StatusConflict, "Ticket has already been refunded", nil)
	ErrRefundWindowExpired        = NewAppError(http.StatusUnprocessableEntity, "Refund window for this event has expired", nil)
	ErrDuplicateReference         = NewAppError(http.StatusConflict, "Transfer reference already registered", nil)
	ErrInvalidAmount              = NewAppError(http.StatusBadRequest, "Amount must be positive", nil)
	ErrNotPending                 = NewAppError(http.StatusConflict, "Request is no longer pending", nil)
)

// NotFoundError creates a 404 Not Found error
func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// GetAppError returns the AppError if the error is or wraps an AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// RespondError translates a workflow error into an HTTP response. Domain errors
// keep their status code and message; anything else becomes a logged 500 with a
// generic body so internals never leak to the caller.
func RespondError(c *gin.Context, err error) {
	if appErr := GetAppError(err); appErr != nil {
		Error(c, appErr.Code, appErr.Message, nil)
		return
	}
	LogError("Unexpected error: %v", err)
	InternalServerError(c, "Something went wrong", nil)
}
