// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is a single failed field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the json name of the field that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the tag parameter, e.g. "128" for "max=128".
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the value that failed validation.
func (e *ValidationError) Value() interface{} {
	return e.value
}

func (e *ValidationError) Error() string {
	return e.message
}

// RequestValidationError collects the failed fields of one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the failed fields.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// APIError mirrors the api package's error body so this package does not
// import it.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts the failures to a VALIDATION_ERROR body.
func (ve *RequestValidationError) ToAPIError() *APIError {
	if len(ve.errors) == 0 {
		return &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	}

	if len(ve.errors) == 1 {
		err := ve.errors[0]
		return &APIError{
			Code:    "VALIDATION_ERROR",
			Message: err.message,
			Details: map[string]interface{}{
				"field": err.field,
				"tag":   err.tag,
			},
		}
	}

	fields := make([]map[string]interface{}, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = map[string]interface{}{
			"field":   err.field,
			"tag":     err.tag,
			"message": err.message,
		}
	}
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: ve.Error(),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(jsonFieldName)
		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	})
	return validate
}

// jsonFieldName reports fields by their json name.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// decimalValue exposes decimals to the numeric comparison tags. A null
// NullDecimal validates as nil so omitempty and required apply.
func decimalValue(field reflect.Value) interface{} {
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := v.Float64()
		return f
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		f, _ := v.Decimal.Float64()
		return f
	}
	return nil
}

// ValidateStruct validates s. It returns nil when s is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}
	return &RequestValidationError{errors: fieldErrors}
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"iso4217":  "%s must be an ISO 4217 currency code",
	"uuid":     "%s must be a valid UUID",
	"datetime": "%s must be a valid date/time in RFC3339 format",
}

var errorMessageWithParam = map[string]string{
	"oneof":   "%s must be one of: %s",
	"gte":     "%s must be greater than or equal to %s",
	"lte":     "%s must be less than or equal to %s",
	"gt":      "%s must be greater than %s",
	"lt":      "%s must be less than %s",
	"len":     "%s must be exactly %s characters",
	"nefield": "%s must differ from %s",
	"gtfield": "%s must be after %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind() == reflect.String

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
