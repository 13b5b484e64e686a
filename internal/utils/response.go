package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// Response is the envelope every JSON endpoint writes.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// MetaInfo carries pagination information for list responses.
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"page_size,omitempty"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type verboseErrorsKey struct{}

// WithVerboseErrors records in ctx whether error responses may include
// developer information.
func WithVerboseErrors(ctx context.Context, verbose bool) context.Context {
	return context.WithValue(ctx, verboseErrorsKey{}, verbose)
}

// VerboseErrors reports the error mode stored by WithVerboseErrors. The
// default is the sanitized production mode.
func VerboseErrors(ctx context.Context) bool {
	verbose, _ := ctx.Value(verboseErrorsKey{}).(bool)
	return verbose
}

// JSON sends a successful (or not, depending on the status) envelope with data.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// Error sends an error envelope.
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	response := Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorCode maps an AppError category to the machine-readable envelope code.
func ErrorCode(err *AppError) string {
	switch {
	case errors.Is(err.Err, ErrNotFound):
		return constants.CodeNotFound
	case errors.Is(err.Err, ErrBadRequest):
		return constants.CodeBadRequest
	case errors.Is(err.Err, ErrUnauthorized):
		return constants.CodeUnauthorized
	case errors.Is(err.Err, ErrForbidden):
		return constants.CodeForbidden
	case errors.Is(err.Err, ErrValidation):
		return constants.CodeValidationError
	case errors.Is(err.Err, ErrDuplicate):
		return constants.CodeDuplicate
	case errors.Is(err.Err, ErrExpiredToken):
		return constants.CodeTokenExpired
	case errors.Is(err.Err, ErrInvalidToken):
		return constants.CodeTokenInvalid
	case errors.Is(err.Err, ErrInvalidWebhook):
		return constants.CodeInvalidWebhook
	case errors.Is(err.Err, ErrTooManyRequests):
		return constants.CodeTooManyRequests
	}
	return constants.CodeInternalError
}

// ErrorFromAppError sends the envelope for err as-is.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	Error(w, err.StatusCode, ErrorCode(err), err.Message, errorDetails(err, false))
}

// RespondError translates err and writes it using the request's error mode.
// Non-operational errors are logged and, unless verbose errors are enabled,
// replaced by a generic message.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := ParseError(err)
	verbose := VerboseErrors(r.Context())

	if !appErr.IsOperational() {
		LogError(err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		if !verbose {
			Error(w, appErr.StatusCode, constants.CodeInternalError, constants.MsgSomethingWrong, nil)
			return
		}
	}

	Error(w, appErr.StatusCode, ErrorCode(appErr), appErr.Message, errorDetails(appErr, verbose))
}

func errorDetails(err *AppError, verbose bool) map[string]string {
	details := make(map[string]string)
	if err.Field != "" {
		details[err.Field] = err.Message
	}
	for k, v := range err.Details {
		if s, ok := v.(string); ok {
			details[k] = s
		}
	}
	if verbose && err.DevInfo != "" {
		details["dev_info"] = err.DevInfo
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// Paginated sends list data with pagination metadata.
func Paginated(w http.ResponseWriter, statusCode int, data interface{}, page, pageSize, totalItems int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = totalItems / pageSize
		if totalItems%pageSize > 0 {
			totalPages++
		}
	}

	response := Response{
		Success: true,
		Data:    data,
		Meta: &MetaInfo{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: totalItems,
			TotalPages: totalPages,
		},
	}

	SendJSON(w, statusCode, response)
}

// SendJSON marshals data and writes it with the given status.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// NoContent sends a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Unauthorized sends a 401 envelope.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgLoginRequired
	}
	Error(w, http.StatusUnauthorized, constants.CodeUnauthorized, message, nil)
}

// MethodNotAllowed sends a 405 envelope.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, constants.CodeMethodNotAllow, constants.MsgMethodNotAllowed, nil)
}

