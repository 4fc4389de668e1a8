package marsh

import (
	"errors"
	"fmt"
	"strings"
)

// Violation codes reported through ValidationError.
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeNull          = "null"
	CodeUnknownKey    = "unknown_key"
)

// UnknownFieldTypeError is returned at derivation time when a declared
// field type has no registered codec factory.
type UnknownFieldTypeError struct {
	kind string
}

// Error returns the error string.
func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("marsh: unknown field type %q", e.kind)
}

// Kind returns the unresolved field kind name.
func (e *UnknownFieldTypeError) Kind() string { return e.kind }

// NewUnknownFieldTypeError returns a new UnknownFieldTypeError for the
// given kind name.
func NewUnknownFieldTypeError(kind string) *UnknownFieldTypeError {
	return &UnknownFieldTypeError{kind: kind}
}

// IsUnknownFieldType returns true if the error is an UnknownFieldTypeError.
func IsUnknownFieldType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownFieldTypeError
	return errors.As(err, &e)
}

// InvalidFieldDeclarationError is returned at derivation time when a
// model declares a field the engine cannot honor: a builder error, a
// nested reference without a resolvable model, or a declaration with
// no matching struct field.
type InvalidFieldDeclarationError struct {
	Model string
	Field string
	Err   error
}

// Error returns the error string.
func (e *InvalidFieldDeclarationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("marsh: model %s: invalid declaration for field %q: %v", e.Model, e.Field, e.Err)
	}
	return fmt.Sprintf("marsh: model %s: invalid field declaration: %v", e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidFieldDeclarationError) Unwrap() error { return e.Err }

// NewInvalidFieldDeclarationError returns a new InvalidFieldDeclarationError.
func NewInvalidFieldDeclarationError(model, field string, err error) *InvalidFieldDeclarationError {
	return &InvalidFieldDeclarationError{Model: model, Field: field, Err: err}
}

// IsInvalidFieldDeclaration returns true if the error is an
// InvalidFieldDeclarationError.
func IsInvalidFieldDeclaration(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidFieldDeclarationError
	return errors.As(err, &e)
}

// CyclicSchemaDependencyError is returned when deriving a model whose
// nested references form a cycle.
type CyclicSchemaDependencyError struct {
	Model string
}

// Error returns the error string.
func (e *CyclicSchemaDependencyError) Error() string {
	return fmt.Sprintf("marsh: cyclic schema dependency through model %s", e.Model)
}

// NewCyclicSchemaDependencyError returns a new CyclicSchemaDependencyError.
func NewCyclicSchemaDependencyError(model string) *CyclicSchemaDependencyError {
	return &CyclicSchemaDependencyError{Model: model}
}

// IsCyclicSchemaDependency returns true if the error is a
// CyclicSchemaDependencyError.
func IsCyclicSchemaDependency(err error) bool {
	if err == nil {
		return false
	}
	var e *CyclicSchemaDependencyError
	return errors.As(err, &e)
}

// MissingSchemaError is returned when an operation references a model
// that has no derived schema.
type MissingSchemaError struct {
	Model string
}

// Error returns the error string.
func (e *MissingSchemaError) Error() string {
	return fmt.Sprintf("marsh: model %s has no derived schema", e.Model)
}

// NewMissingSchemaError returns a new MissingSchemaError for the given
// model name.
func NewMissingSchemaError(model string) *MissingSchemaError {
	return &MissingSchemaError{Model: model}
}

// IsMissingSchema returns true if the error is a MissingSchemaError.
func IsMissingSchema(err error) bool {
	if err == nil {
		return false
	}
	var e *MissingSchemaError
	return errors.As(err, &e)
}

// A Violation is a single per-field failure found while dumping or
// loading. Path is a JSON-pointer-like location in the serialized
// representation, such as /entries/0/request.
type Violation struct {
	Path    string
	Code    string
	Message string
}

// ValidationError collects every violation found during a dump or load
// call. Violations are gathered across all fields rather than stopping
// at the first failure.
type ValidationError struct {
	Model      string
	Violations []Violation
}

// Error summarizes the violations.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "marsh: validation failed for %s:", e.Model)
	for _, v := range e.Violations {
		fmt.Fprintf(&sb, "\n  %s at %s: %s", v.Code, v.Path, v.Message)
	}
	return sb.String()
}

// NewValidationError returns a ValidationError if violations is
// non-empty, otherwise nil.
func NewValidationError(model string, violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Model: model, Violations: violations}
}

// IsValidation returns true if the error is a ValidationError.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AsValidation extracts a ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var e *ValidationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
