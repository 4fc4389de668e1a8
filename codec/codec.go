// Package codec implements the field codecs the derivation engine
// configures. A codec translates a single in-memory field value to and
// from its plain serialized representation; it knows nothing about
// models, schemas or ancestry.
package codec

import "context"

// Options configures a codec instance. The derivation engine fills it
// from the field declaration when the model's schema is derived.
type Options struct {
	Default      any
	Required     bool
	AllowNone    bool
	ExternalName string
	Many         bool
}

// A Codec converts between an in-memory field value and its serialized
// representation value.
type Codec interface {
	// Encode converts an in-memory value to its serialized form.
	Encode(ctx context.Context, v any) (any, error)
	// Decode converts a serialized value back to its in-memory form.
	Decode(ctx context.Context, v any) (any, error)
}

// A Factory constructs a configured codec. The engine resolves one per
// field kind and invokes it once per field at derivation time.
type Factory func(Options) Codec

// Violation codes reported by codecs.
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeNull          = "null"
)

// Error is a per-value codec failure. The round-trip facade maps it to
// a schema validation violation with the same code.
type Error struct {
	Code    string
	Message string
}

// Error returns the error string.
func (e *Error) Error() string { return e.Message }

func errInvalidType(msg string) error   { return &Error{Code: CodeInvalidType, Message: msg} }
func errInvalidFormat(msg string) error { return &Error{Code: CodeInvalidFormat, Message: msg} }

// errNull reports a null value on a field that does not allow one.
func errNull() error { return &Error{Code: CodeNull, Message: "null is not allowed"} }
