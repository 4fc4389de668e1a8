// Package marsh derives serialization schemas from model declarations.
//
// A model is a plain Go struct that declares its fields with the
// builders in schema/field and its nested references with schema/rel:
//
//	type Person struct {
//	    marsh.Schema
//	    Name string
//	    Age  int
//	}
//
//	func (Person) Fields() []marsh.Field {
//	    return []marsh.Field{
//	        field.String("name"),
//	        field.Int("age").Default(0),
//	    }
//	}
//
// Registering the model with a Registry derives, once, a schema
// definition (one configured codec per field), a constructor covering
// the whole ancestry chain, and dump/load round-trip operations:
//
//	reg := marsh.NewRegistry()
//	def, err := reg.Derive(Person{})
//	repr, err := def.Dump(ctx, &p)       // {"name": "Ana", "age": 0}
//	p, err := marsh.Load[Person](ctx, reg, repr)
//
// Model inheritance is expressed by embedding: a struct that embeds
// another model extends it, and its derived schema mirrors that
// ancestry.
package marsh

import (
	"github.com/syssam/marsh/schema/field"
	"github.com/syssam/marsh/schema/rel"
)

// Field is the interface implemented by the schema/field builders.
type Field interface {
	Descriptor() *field.Descriptor
}

// Rel is the interface implemented by the schema/rel builders.
type Rel interface {
	Descriptor() *rel.Descriptor
}

// Interface is implemented by all model declarations. Models embed
// marsh.Schema and override the methods they need.
type Interface interface {
	// Fields returns the fields declared directly on this model,
	// not including inherited ones.
	Fields() []Field
	// Rels returns the nested references declared directly on this
	// model.
	Rels() []Rel
}

// Schema is the default implementation of Interface. Embed it in
// model structs and override the methods that apply.
type Schema struct{}

// Fields of the model. Override to declare fields.
func (Schema) Fields() []Field { return nil }

// Rels of the model. Override to declare nested references.
func (Schema) Rels() []Rel { return nil }

var _ Interface = (*Schema)(nil)

// ExternalNamer is an optional model interface providing a table of
// irregular external names, keyed by declared field name. Entries take
// precedence over the registry's field namer, and are in turn
// overridden by per-field External declarations.
type ExternalNamer interface {
	ExternalNames() map[string]string
}

// Initializer is an optional hook that runs after a model's declared
// fields have been populated by the synthesized constructor. It is the
// place for hand-written initialization logic; values holds the full
// keyword set the constructor received.
//
// The hook is resolved per ancestry level. A model whose Initializer
// is only promoted from an embedded ancestor does not run it again;
// a model that intentionally shadows an ancestor's hook must attach
// its own with the WithInit derive option.
type Initializer interface {
	Init(values map[string]any) error
}
