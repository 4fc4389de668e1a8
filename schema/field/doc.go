// Package field provides fluent builders for declaring model fields.
//
// Field names follow serialization conventions (snake_case), while Go
// struct field names are resolved automatically to their exported
// PascalCase form:
//
//	field.Int("status_code")  // struct field: StatusCode
//	field.String("name")      // struct field: Name
//
// # Field Types
//
//	field.Bool("secure")
//	field.String("name")
//	field.URL("homepage")
//	field.Int("age")
//	field.Float("weight")
//	field.Time("started_at")   // RFC 3339
//	field.Bytes("payload")     // base64 string
//	field.Raw("metadata")      // untyped key-value blob
//	field.UUID("id")           // requires codec.UUID to be registered
//
// # Required, Optional and Defaults
//
// A field with no declared default is required. Declaring a default,
// literal or factory, makes it optional:
//
//	field.Int("age").Default(0)
//	field.Time("created_at").DefaultFunc(time.Now)
//	field.String("comment").Optional() // nil default, accepts null
//
// # External Names
//
// The serialized key defaults to the declared name, transformed by the
// configured namer. Irregular names are overridden per field:
//
//	field.String("page_ref").External("pageref")
package field
