// Package rel provides builders for declaring nested model references.
//
// A rel points at another schema-derived model, either a single
// instance or an ordered collection:
//
//	rel.One("creator", Creator{})
//	rel.Many("entries", Entry{}).Optional()
//
// The related model must have (or be able to have) a derived schema of
// its own; mutual One references between two models fail derivation
// with a cyclic dependency error.
package rel

import "fmt"

// A Descriptor for reference configuration. Declaration mistakes are
// recorded in Err and surfaced at derivation time.
type Descriptor struct {
	Name     string // name of the reference in the model declaration.
	Model    any    // value of the related model type.
	Many     bool   // collection reference.
	Optional bool   // declared optional; nil default.
	Nillable bool   // null is an acceptable serialized value.
	External string // external key override for the serialized form.
	Comment  string
	Err      error
}

type builder struct {
	desc *Descriptor
}

// One returns a reference to a single instance of the related model.
// The model argument is a value of the related model type, typically
// its zero value.
func One(name string, model any) *builder { return newBuilder(name, model, false) }

// Many returns a reference to an ordered collection of the related
// model. An absent or null collection constructs as an empty slice,
// never nil.
func Many(name string, model any) *builder { return newBuilder(name, model, true) }

func newBuilder(name string, model any, many bool) *builder {
	b := &builder{desc: &Descriptor{Name: name, Model: model, Many: many}}
	switch {
	case name == "":
		b.desc.Err = fmt.Errorf("rel name cannot be empty")
	case model == nil:
		b.desc.Err = fmt.Errorf("rel %q: related model cannot be nil", name)
	}
	return b
}

// Optional marks the reference as optional with a nil default.
func (b *builder) Optional() *builder {
	b.desc.Optional = true
	b.desc.Nillable = true
	return b
}

// Nillable allows null as a serialized value without making the
// reference optional on its own.
func (b *builder) Nillable() *builder {
	b.desc.Nillable = true
	return b
}

// External overrides the key used for this reference in the serialized
// representation.
func (b *builder) External(name string) *builder {
	b.desc.External = name
	return b
}

// Comment sets the reference comment.
func (b *builder) Comment(c string) *builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the marsh.Rel interface.
func (b *builder) Descriptor() *Descriptor { return b.desc }
