package field

import (
	"fmt"
	"reflect"
)

// A Type identifies the codec kind used to serialize a field.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBool
	TypeString
	TypeURL
	TypeInt
	TypeFloat
	TypeTime
	TypeBytes
	TypeRaw
	TypeUUID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeString:  "string",
	TypeURL:     "url",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeTime:    "time",
	TypeBytes:   "bytes",
	TypeRaw:     "raw",
	TypeUUID:    "uuid",
}

// String returns the name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("invalid(%d)", t)
}

// Valid reports if the given type is a declarable field type.
func (t Type) Valid() bool { return t > TypeInvalid && t < endTypes }

// A Descriptor for field configuration. Builders in this package
// record declaration mistakes in Err instead of panicking; the
// derivation engine surfaces them when the model is registered.
type Descriptor struct {
	Name       string // name of the field in the model declaration.
	Type       Type   // codec kind.
	Default    any    // declared default value, or a zero-argument factory.
	HasDefault bool   // a default was declared (a nil default counts).
	Optional   bool   // declared optional; equivalent to a nil default.
	Nillable   bool   // null is an acceptable serialized value.
	External   string // external key override for the serialized form.
	Comment    string
	Err        error
}

type builder struct {
	desc *Descriptor
}

// Bool returns a new boolean field with the given name.
func Bool(name string) *builder { return newBuilder(name, TypeBool) }

// String returns a new string field with the given name.
func String(name string) *builder { return newBuilder(name, TypeString) }

// URL returns a new string field holding a URL. Its codec rejects
// values that do not parse as absolute URLs.
func URL(name string) *builder { return newBuilder(name, TypeURL) }

// Int returns a new integer field with the given name.
func Int(name string) *builder { return newBuilder(name, TypeInt) }

// Float returns a new float field with the given name.
func Float(name string) *builder { return newBuilder(name, TypeFloat) }

// Time returns a new time field with the given name, serialized in
// RFC 3339 (ISO-8601) format.
func Time(name string) *builder { return newBuilder(name, TypeTime) }

// Bytes returns a new bytes field with the given name, serialized as
// a base64 string.
func Bytes(name string) *builder { return newBuilder(name, TypeBytes) }

// Raw returns a new untyped key-value blob field with the given name.
// Values pass through serialization unchanged; an absent or null value
// constructs as an empty map rather than nil.
func Raw(name string) *builder { return newBuilder(name, TypeRaw) }

// UUID returns a new UUID field with the given name. The uuid codec
// is not part of the registry built-ins; callers register codec.UUID
// through their configuration.
func UUID(name string) *builder { return newBuilder(name, TypeUUID) }

func newBuilder(name string, t Type) *builder {
	b := &builder{desc: &Descriptor{Name: name, Type: t}}
	if name == "" {
		b.desc.Err = fmt.Errorf("field name cannot be empty")
	}
	return b
}

// Default declares a default value for the field. Declaring a default
// makes the field optional. A nil default additionally marks the field
// nillable, the same as Optional.
func (b *builder) Default(v any) *builder {
	b.desc.Default = v
	b.desc.HasDefault = true
	if v == nil {
		b.desc.Optional = true
		b.desc.Nillable = true
	}
	return b
}

// DefaultFunc declares a zero-argument factory invoked lazily when no
// value is supplied at construction time.
func (b *builder) DefaultFunc(fn any) *builder {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 0 || t.NumOut() != 1 {
		b.desc.Err = fmt.Errorf("field %q: default factory must be a func() T", b.desc.Name)
		return b
	}
	b.desc.Default = fn
	b.desc.HasDefault = true
	return b
}

// Optional marks the field as optional with a nil default. Optional
// fields are never required and accept null in the serialized form.
func (b *builder) Optional() *builder {
	b.desc.Optional = true
	b.desc.Nillable = true
	return b
}

// Nillable allows null as a serialized value without making the field
// optional on its own.
func (b *builder) Nillable() *builder {
	b.desc.Nillable = true
	return b
}

// External overrides the key used for this field in the serialized
// representation. It takes precedence over the model's external-name
// table and the configured field namer.
func (b *builder) External(name string) *builder {
	b.desc.External = name
	return b
}

// Comment sets the field comment.
func (b *builder) Comment(c string) *builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the marsh.Field interface.
func (b *builder) Descriptor() *Descriptor { return b.desc }
