package marsh

import (
	"fmt"
	"reflect"

	"github.com/syssam/marsh/codec"
)

// SchemaDefinition is the derived, immutable serialization shape of a
// model: its merged field codecs, ancestry and synthesized
// constructor. Definitions are built by Registry.Derive and shared
// after publication, so they carry no mutable state.
type SchemaDefinition struct {
	registry *Registry
	typ      reflect.Type
	name     string
	ancestry []string
	fields   []*FieldCodec
	byName   map[string]*FieldCodec
	byExt    map[string]*FieldCodec

	construct constructFunc
}

// FieldCodec is one derived field of a schema definition: the declared
// name bound to its external name, codec and struct storage.
type FieldCodec struct {
	Name         string
	ExternalName string
	Required     bool
	AllowNone    bool
	Many         bool
	HasDefault   bool
	Default      any
	Codec        codec.Codec          // nil for nested references
	Nested       *SchemaDefinition    // nil for primitive fields

	kind   fieldKind
	index  []int
	goType reflect.Type
	owner  int // construction step that assigns this field
}

// Name returns the model's struct type name.
func (d *SchemaDefinition) Name() string { return d.name }

// Ancestry lists the model's ancestor schema names, nearest first.
func (d *SchemaDefinition) Ancestry() []string {
	out := make([]string, len(d.ancestry))
	copy(out, d.ancestry)
	return out
}

// Fields returns the merged field codecs in declaration order,
// root-most ancestor first. Shadowed fields keep the slot of the
// ancestor that introduced them.
func (d *SchemaDefinition) Fields() []*FieldCodec {
	out := make([]*FieldCodec, len(d.fields))
	copy(out, d.fields)
	return out
}

// Lookup returns the field codec for a declared name.
func (d *SchemaDefinition) Lookup(name string) (*FieldCodec, bool) {
	fc, ok := d.byName[name]
	return fc, ok
}

// derive builds the definition for one model under the registry lock,
// staging the result for publication by the caller. Nested reference
// models derive recursively; a reference chain that reaches a model
// already in flight reports a cycle.
func (r *Registry) derive(model Interface, staged map[reflect.Type]*SchemaDefinition) (*SchemaDefinition, error) {
	t := indirectType(reflect.TypeOf(model))
	if def, ok := r.schemas[t]; ok {
		return def, nil
	}
	if def, ok := staged[t]; ok {
		return def, nil
	}
	if r.deriving[t] {
		return nil, NewCyclicSchemaDependencyError(t.Name())
	}
	r.deriving[t] = true
	defer delete(r.deriving, t)

	md, err := extract(model, r.cfg)
	if err != nil {
		return nil, err
	}
	def := &SchemaDefinition{
		registry: r,
		typ:      t,
		name:     t.Name(),
		byName:   make(map[string]*FieldCodec),
		byExt:    make(map[string]*FieldCodec),
	}
	for _, lv := range md.ancestry {
		def.ancestry = append(def.ancestry, lv.typ.Name())
	}

	// Merge declarations root-most first. A re-declaration on a nearer
	// level replaces the ancestor's entry in place and takes over
	// ownership of the assignment.
	external := mergedExternalNames(md)
	for step, cs := range md.steps {
		if cs.level == nil {
			continue
		}
		for _, fd := range cs.level.fields {
			fc, err := r.bind(md, fd, external, step, staged)
			if err != nil {
				return nil, err
			}
			if prev, ok := def.byName[fd.name]; ok {
				*prev = *fc
				continue
			}
			def.fields = append(def.fields, fc)
			def.byName[fd.name] = fc
		}
	}
	for _, fc := range def.fields {
		if prev, ok := def.byExt[fc.ExternalName]; ok && prev != fc {
			return nil, NewInvalidFieldDeclarationError(t.Name(), fc.Name,
				errExternalClash(fc.ExternalName, prev.Name))
		}
		def.byExt[fc.ExternalName] = fc
	}
	def.construct = r.buildConstructor(md, def.fields)
	staged[t] = def
	return def, nil
}

// bind turns an extracted field descriptor into its derived codec
// form, deriving the nested definition for reference fields.
func (r *Registry) bind(md *modelDescriptor, fd *fieldDescriptor, external map[string]string, owner int, staged map[reflect.Type]*SchemaDefinition) (*FieldCodec, error) {
	fc := &FieldCodec{
		Name:         fd.name,
		ExternalName: externalName(fd, external, r.cfg),
		Required:     fd.required,
		AllowNone:    fd.allowNone,
		Many:         fd.kind == kindMany,
		HasDefault:   fd.hasDefault,
		Default:      fd.def,
		kind:         fd.kind,
		index:        fd.index,
		goType:       fd.goType,
		owner:        owner,
	}
	if fd.kind == kindPrimitive {
		factory, ok := r.codecs[fd.prim]
		if !ok {
			return nil, NewUnknownFieldTypeError(fd.prim.String())
		}
		fc.Codec = factory(codec.Options{
			Default:      fd.def,
			Required:     fd.required,
			AllowNone:    fd.allowNone,
			ExternalName: fc.ExternalName,
		})
		return fc, nil
	}
	nested, err := r.derive(fd.related, staged)
	if err != nil {
		return nil, err
	}
	fc.Nested = nested
	return fc, nil
}

// mergedExternalNames collects ExternalNames tables along the
// ancestry, root-most first so a nearer table overrides.
func mergedExternalNames(md *modelDescriptor) map[string]string {
	out := make(map[string]string)
	for _, cs := range md.steps {
		if cs.level == nil {
			continue
		}
		if en, ok := cs.level.model.(ExternalNamer); ok {
			for k, v := range en.ExternalNames() {
				out[k] = v
			}
		}
	}
	return out
}

func errExternalClash(ext, other string) error {
	return fmt.Errorf("external name %q already taken by field %q", ext, other)
}

// externalName resolves a field's wire name: a per-field override
// wins, then the model's name table, then the configured namer.
func externalName(fd *fieldDescriptor, external map[string]string, cfg Config) string {
	if fd.external != "" {
		return fd.external
	}
	if name, ok := external[fd.name]; ok {
		return name
	}
	if cfg.FieldNamer != nil {
		return cfg.FieldNamer(fd.name)
	}
	return fd.name
}
