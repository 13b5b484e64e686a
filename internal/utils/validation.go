package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

var (
	validate *validator.Validate
)

// InitValidator initializes the shared validator. Field names in errors use the
// json tag so messages match request bodies.
func InitValidator() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations(validate)

	log.Info().Msg("Validator initialized")
}

// GetValidator returns the shared validator, creating it on first use.
func GetValidator() *validator.Validate {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// DecodeJSON decodes a single JSON object from the request body into v. When v
// already holds data the decoded fields are merged over it, which is how
// PATCH requests are applied.
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, constants.MaxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &maxBytesError):
			return New(ErrBadRequest, http.StatusRequestEntityTooLarge, constants.MsgRequestBodyLarge)

		case errors.Is(err, io.EOF):
			return NewBadRequestError(constants.MsgEmptyRequestBody)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return NewBadRequestError(constants.MsgMalformedJSON)

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return NewValidationError(fieldName, fmt.Sprintf("Request body contains unknown field %s", fieldName))

		case errors.As(err, &syntaxError):
			return NewBadRequestError(fmt.Sprintf("%s (at position %d)", constants.MsgMalformedJSON, syntaxError.Offset))

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return NewValidationError(unmarshalTypeError.Field, fmt.Sprintf("Must be a %s", unmarshalTypeError.Type.String()))
			}
			return NewBadRequestError(fmt.Sprintf("Request body contains incorrect JSON type (at position %d)", unmarshalTypeError.Offset))

		case errors.As(err, &invalidUnmarshalError):
			return NewInternalServerError(err)

		default:
			return NewBadRequestError(fmt.Sprintf("Error decoding JSON: %s", err.Error()))
		}
	}

	if dec.More() {
		return NewBadRequestError("Request body must only contain a single JSON object")
	}

	return nil
}

// ValidateStruct runs the struct tag validations on v.
func ValidateStruct(v interface{}) error {
	err := GetValidator().Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		if len(validationErrors) == 1 {
			e := validationErrors[0]
			return NewValidationError(e.Field(), getErrorMessage(e))
		}

		details := make(map[string]string)
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msg := getErrorMessage(e)
			details[e.Field()] = msg
			messages = append(messages, fmt.Sprintf("%s: %s", e.Field(), msg))
		}

		return NewValidationErrorWithDetails(fmt.Sprintf("Invalid input data. %s", strings.Join(messages, ". ")), details)
	}

	return NewBadRequestError(err.Error())
}

// DecodeAndValidate decodes the request body into v and validates it.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	return ValidateStruct(v)
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please provide a valid email"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long", e.Param())
		}
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long", e.Param())
		}
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", e.Param())
	case "eqfield":
		return constants.MsgPasswordsDoNotMatch
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	case "role":
		return "Role must be one of: user, guide, lead-guide, admin"
	case "difficulty":
		return "Difficulty is either: easy, medium, difficult"
	case "latlng":
		return "Coordinates must be [longitude, latitude]"
	default:
		return fmt.Sprintf("Failed validation on the '%s' tag", e.Tag())
	}
}

func registerCustomValidations(v *validator.Validate) {
	custom := map[string]validator.Func{
		"role":       validateRole,
		"difficulty": validateDifficulty,
		"latlng":     validateLngLat,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Error().Err(err).Str("tag", tag).Msg("Failed to register validation")
		}
	}
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constants.RoleUser, constants.RoleGuide, constants.RoleLeadGuide, constants.RoleAdmin:
		return true
	}
	return false
}

func validateDifficulty(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constants.DifficultyEasy, constants.DifficultyMedium, constants.DifficultyDifficult:
		return true
	}
	return false
}

// validateLngLat checks a GeoJSON [lng, lat] coordinate pair.
func validateLngLat(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return false
	}
	if field.Len() == 0 {
		return true
	}
	if field.Len() != 2 {
		return false
	}
	lng, lat := field.Index(0).Float(), field.Index(1).Float()
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// NewValidationErrorWithDetails creates a validation error carrying one
// message per field.
func NewValidationErrorWithDetails(message string, details map[string]string) *AppError {
	detailsMap := make(map[string]interface{})
	for k, v := range details {
		detailsMap[k] = v
	}

	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Details:    detailsMap,
	}
}

