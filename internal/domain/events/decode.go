package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEvent marks every client input failure: bad JSON, wrong types,
// missing fields, unknown severities.
var ErrInvalidEvent = errors.New("invalid event")

// ValidationError names the fields that failed validation. It unwraps to
// ErrInvalidEvent.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidEvent
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		sev, ok := fl.Field().Interface().(Severity)
		return ok && sev.Valid()
	})
	return v
}

// DecodeClientEvent reads exactly one JSON object from r and validates it.
// Unknown fields are ignored. Numbers inside details keep their original
// text so they are forwarded unchanged.
func DecodeClientEvent(r io.Reader) (ClientEvent, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var event ClientEvent
	if err := dec.Decode(&event); err != nil {
		return ClientEvent{}, fmt.Errorf("%w: decode: %w", ErrInvalidEvent, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ClientEvent{}, fmt.Errorf("%w: unexpected data after event", ErrInvalidEvent)
	}

	if err := Validate(event); err != nil {
		return ClientEvent{}, err
	}
	return event, nil
}

// Validate checks required fields on an already decoded event.
func Validate(event ClientEvent) error {
	err := validate.Struct(event)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return ValidationError{Fields: fields}
}
