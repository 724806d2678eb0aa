package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func msgForTag(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "max":
		return fmt.Sprintf("Must not exceed %s characters", fieldError.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fieldError.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fieldError.Param())
	default:
		return "Invalid value"
	}
}

// fieldName prefers the json tag, then the form tag, then the Go field name.
func fieldName(structType reflect.Type, goName string) string {
	if structType == nil {
		return goName
	}

	field, found := structType.FieldByName(goName)
	if !found {
		return goName
	}

	for _, key := range []string{"json", "form"} {
		if name, _, _ := strings.Cut(field.Tag.Get(key), ","); name != "" && name != "-" {
			return name
		}
	}

	return goName
}

// FormatValidationErrors turns binding failures into per-field messages for model.
// Errors it does not recognise yield nil.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	responses := make([]ValidationErrorResponse, len(validationErrors))
	for i, fieldError := range validationErrors {
		responses[i] = ValidationErrorResponse{
			Field:   fieldName(structType, fieldError.StructField()),
			Message: msgForTag(fieldError),
		}
	}

	return responses
}
