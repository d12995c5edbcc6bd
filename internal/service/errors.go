package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks caller-correctable input errors.
var ErrValidation = errors.New("validation error")

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError carries field-level details for a rejected payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func fieldError(field, tag, param string) FieldError {
	var msg string
	switch tag {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "gte":
		msg = fmt.Sprintf("%s must be >= %s", field, param)
	case "lte":
		msg = fmt.Sprintf("%s must be <= %s", field, param)
	case "lt":
		msg = fmt.Sprintf("%s must be < %s", field, param)
	default:
		msg = fmt.Sprintf("%s failed %s validation", field, tag)
	}
	return FieldError{Field: field, Tag: tag, Param: param, Message: msg}
}

// NewValidationError converts a binding/decoding error into a ValidationError.
// validator.ValidationErrors keep their per-field detail; anything else (malformed JSON,
// wrong types) becomes a single "body" entry.
func NewValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, fieldError(jsonFieldName(fe), fe.Tag(), fe.Param()))
		}
		return out
	}
	return &ValidationError{Fields: []FieldError{{Field: "body", Tag: "json", Message: err.Error()}}}
}

// jsonFieldName maps a struct field to its wire name.
func jsonFieldName(fe validator.FieldError) string {
	if name, ok := wireNames[fe.StructField()]; ok {
		return name
	}
	return fe.Field()
}

var wireNames = map[string]string{
	"PhysicalSwitch": "physical_switch",
	"MotorState":     "motor_state",
	"RemainingTime":  "remaining_time",
	"Hours":          "hours",
	"Minutes":        "minutes",
}
