package utils

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// Custom error types for the application
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("invalid request")
	ErrInternalServer  = errors.New("internal server error")
	ErrValidation      = errors.New("validation error")
	ErrDuplicate       = errors.New("duplicate resource")
	ErrExpiredToken    = errors.New("expired token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidWebhook  = errors.New("invalid webhook")
	ErrTooManyRequests = errors.New("too many requests")
)

// duplicateDetail matches the pq detail "Key (email)=(a@b.io) already exists."
var duplicateDetail = regexp.MustCompile(`Key \(([^)]*)\)=\((.*)\) already exists`)

// AppError represents an application error with additional context
type AppError struct {
	Err        error  // The underlying error
	StatusCode int    // HTTP status code
	Message    string // User-friendly error message
	DevInfo    string // Additional information for developers
	Field      string // Field related to the error (for validation errors)
	Details    map[string]any
	// Expose marks a 5xx whose message is written for clients.
	Expose bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsOperational reports whether the message is safe to show to clients in
// every environment.
func (e *AppError) IsOperational() bool {
	return e.StatusCode < http.StatusInternalServerError || e.Expose
}

// New creates a new AppError with the given error and status code
func New(err error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a new validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Field:      field,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// NewNotFoundError creates a new not found error with a client-facing message.
func NewNotFoundError(message string) *AppError {
	if message == "" {
		message = constants.MsgNoDocumentWithID
	}
	return &AppError{
		Err:        ErrNotFound,
		StatusCode: http.StatusNotFound,
		Message:    message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = constants.MsgLoginRequired
	}
	return &AppError{
		Err:        ErrUnauthorized,
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = constants.MsgPermissionDenied
	}
	return &AppError{
		Err:        ErrForbidden,
		StatusCode: http.StatusForbidden,
		Message:    message,
	}
}

// NewInternalServerError wraps an unexpected failure; the cause is kept as DevInfo.
func NewInternalServerError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    constants.MsgSomethingWrong,
		DevInfo:    devInfo,
	}
}

// NewInternalError is a 500 whose message is intended for the client.
func NewInternalError(message string, err error) *AppError {
	appErr := NewInternalServerError(err)
	appErr.Message = message
	appErr.Expose = true
	return appErr
}

// NewDuplicateError creates a new duplicate value error
func NewDuplicateError(field string, value interface{}) *AppError {
	return &AppError{
		Err:        ErrDuplicate,
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(constants.MsgDuplicateValue, fmt.Sprintf("%v", value)),
		Field:      field,
	}
}

// NewExpiredTokenError creates a new expired token error
func NewExpiredTokenError() *AppError {
	return &AppError{
		Err:        ErrExpiredToken,
		StatusCode: http.StatusUnauthorized,
		Message:    constants.MsgTokenExpired,
	}
}

// NewInvalidTokenError creates a new invalid token error
func NewInvalidTokenError() *AppError {
	return &AppError{
		Err:        ErrInvalidToken,
		StatusCode: http.StatusUnauthorized,
		Message:    constants.MsgInvalidToken,
	}
}

// NewInvalidWebhookError rejects a payment event whose signature does not verify.
func NewInvalidWebhookError(err error) *AppError {
	reason := "invalid payload"
	if err != nil {
		reason = err.Error()
	}
	return &AppError{
		Err:        ErrInvalidWebhook,
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(constants.MsgWebhookError, reason),
	}
}

// NewTooManyRequestsError is returned once a client exhausts its request budget.
func NewTooManyRequestsError() *AppError {
	return &AppError{
		Err:        ErrTooManyRequests,
		StatusCode: http.StatusTooManyRequests,
		Message:    constants.MsgTooManyRequests,
	}
}

// ParseError attempts to parse various types of errors into an AppError
func ParseError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrNotFound):
		return NewNotFoundError("")
	case errors.Is(err, ErrUnauthorized):
		return NewUnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return NewForbiddenError("")
	case errors.Is(err, ErrBadRequest):
		return NewBadRequestError(err.Error())
	case errors.Is(err, ErrValidation):
		return NewValidationError("", err.Error())
	case errors.Is(err, ErrExpiredToken):
		return NewExpiredTokenError()
	case errors.Is(err, ErrInvalidToken):
		return NewInvalidTokenError()
	case errors.Is(err, ErrTooManyRequests):
		return NewTooManyRequestsError()
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case constants.PGErrorDuplicateConstraint:
			field, value := pqErr.Column, pqErr.Constraint
			if m := duplicateDetail.FindStringSubmatch(pqErr.Detail); len(m) == 3 {
				field, value = m[1], m[2]
			}
			dup := NewDuplicateError(field, value)
			dup.DevInfo = pqErr.Error()
			return dup
		case constants.PGErrorForeignKeyConstraint:
			return &AppError{
				Err:        ErrBadRequest,
				StatusCode: http.StatusBadRequest,
				Message:    "Referenced document does not exist",
				DevInfo:    pqErr.Error(),
			}
		case constants.PGErrorNotNullConstraint:
			field := pqErr.Column
			return &AppError{
				Err:        ErrValidation,
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("Invalid input data. %s is required", field),
				DevInfo:    pqErr.Error(),
				Field:      field,
			}
		case constants.PGErrorCheckConstraint:
			return &AppError{
				Err:        ErrValidation,
				StatusCode: http.StatusBadRequest,
				Message:    constants.MsgInvalidInputData,
				DevInfo:    pqErr.Error(),
				Field:      pqErr.Constraint,
			}
		case constants.PGErrorInvalidTextRepresentation:
			return &AppError{
				Err:        ErrBadRequest,
				StatusCode: http.StatusBadRequest,
				Message:    constants.MsgInvalidInputData,
				DevInfo:    pqErr.Error(),
			}
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint") {
		return &AppError{
			Err:        ErrDuplicate,
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf(constants.MsgDuplicateValue, "Value"),
			DevInfo:    err.Error(),
		}
	}

	return NewInternalServerError(err)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// StatusCode returns the HTTP status code for an error
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
