package fields

import (
	"errors"
	"fmt"
)

// ErrorPrefix is prepended to every error message produced by this package.
const ErrorPrefix = "[nodefields]"

var (
	// ErrNilSink is returned when [Attacher.Attach] is called without a sink.
	ErrNilSink = errors.New("sink is required")

	// ErrHook wraps errors returned by descriptor hooks.
	ErrHook = errors.New("hook")
)

// SchemaValidationError reports a malformed descriptor list.
type SchemaValidationError struct {
	Err    error  // Underlying error, if any.
	Path   string // Location of the problem, e.g. "[0].fields[1].setter".
	Detail string // Human-readable description.
}

// NewSchemaValidationError creates a [*SchemaValidationError].
func NewSchemaValidationError(path, detail string) *SchemaValidationError {
	return &SchemaValidationError{Path: path, Detail: detail}
}

func (e *SchemaValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s Schema Validation Error: %s", ErrorPrefix, e.Detail)
	}

	return fmt.Sprintf("%s Schema Validation Error: %s: %s", ErrorPrefix, e.Path, e.Detail)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// InvalidFieldError is returned when a validator rejects a field value.
type InvalidFieldError struct {
	Value any
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf(
		"%s Invalid Field Error: Validator function for field named '%s' returned false for field value '%v'",
		ErrorPrefix, e.Field, e.Value,
	)
}

// RequiredFieldError is returned when a node requires values and a field
// resolved to nothing.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf(
		"%s Required Field Error: Required Field '%s' was nil. Did you mean to set a default value?",
		ErrorPrefix, e.Field,
	)
}

// hookError wraps an error returned by one of the rule's hooks.
func hookError(rule *Rule, hook string, err error) error {
	return fmt.Errorf("field %q: %w %s: %w", rule.label(), ErrHook, hook, err)
}
