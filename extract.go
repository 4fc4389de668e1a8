package marsh

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/marsh/schema/field"
)

// fieldKind is the closed classification of a declared field.
type fieldKind uint8

const (
	kindPrimitive fieldKind = iota
	kindOne
	kindMany
)

// fieldDescriptor is the extracted form of a single field or rel
// declaration, resolved against the model's struct layout.
type fieldDescriptor struct {
	name       string
	kind       fieldKind
	prim       field.Type // valid for kindPrimitive
	related    Interface  // valid for kindOne/kindMany
	def        any
	hasDefault bool
	required   bool
	allowNone  bool
	external   string // per-field override, may be empty
	index      []int  // struct index path, absolute from the leaf type
	goType     reflect.Type
}

// levelInfo describes one model level in the ancestry chain.
type levelInfo struct {
	typ    reflect.Type
	model  Interface
	path   []int // index path from the leaf struct to this level
	fields []*fieldDescriptor
	// ownInit reports that the level's type declares its own Init
	// hook rather than promoting an embedded one.
	ownInit bool
}

// constructStep is one entry in the linear construction plan. Exactly
// one of level and plain is set.
type constructStep struct {
	level *levelInfo
	// plain identifies an embedded non-model struct whose Init hook
	// runs once, terminating delegation on that branch.
	plainPath []int
	plainType reflect.Type
}

// modelDescriptor is the fully extracted shape of a model: its struct
// type, ancestry, per-level field declarations and construction plan.
type modelDescriptor struct {
	typ      reflect.Type
	model    Interface
	ancestry []*levelInfo    // model ancestors, nearest first
	steps    []constructStep // execution order: root-most first, leaf last
}

var (
	initType = reflect.TypeOf((*Initializer)(nil)).Elem()
	baseType = reflect.TypeOf(Schema{})
)

// extract reads a model declaration into a modelDescriptor. It walks
// the embedded ancestry depth-first with a visited set, so each model
// level appears exactly once no matter how it is reached.
func extract(model Interface, cfg Config) (*modelDescriptor, error) {
	t := indirectType(reflect.TypeOf(model))
	if t.Kind() != reflect.Struct {
		return nil, NewInvalidFieldDeclarationError(fmt.Sprintf("%T", model), "", fmt.Errorf("model must be a struct, got %s", t.Kind()))
	}
	md := &modelDescriptor{typ: t, model: model}
	visited := make(map[reflect.Type]bool)
	if err := md.walk(model, t, nil, visited, cfg); err != nil {
		return nil, err
	}
	// The last step is the leaf; everything before it that carries a
	// level is an ancestor, recorded nearest first.
	for i := len(md.steps) - 2; i >= 0; i-- {
		if lv := md.steps[i].level; lv != nil {
			md.ancestry = append(md.ancestry, lv)
		}
	}
	if cfg.Base != nil {
		if err := md.checkBase(cfg.Base); err != nil {
			return nil, err
		}
	}
	return md, nil
}

// walk appends the construction steps for the level at path, ancestors
// first, then the level itself.
func (md *modelDescriptor) walk(model Interface, t reflect.Type, path []int, visited map[reflect.Type]bool, cfg Config) error {
	if visited[t] {
		return nil
	}
	visited[t] = true
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous || sf.Type == baseType {
			continue
		}
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			return NewInvalidFieldDeclarationError(t.Name(), sf.Name, fmt.Errorf("embedded ancestor must be a struct value, not a pointer"))
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		sub := appendPath(path, i)
		if ancestor, ok := asModel(ft); ok {
			if err := md.walk(ancestor, ft, sub, visited, cfg); err != nil {
				return err
			}
			continue
		}
		// A plain embedded struct: its Init hook, when present, runs
		// once and delegation stops on that branch.
		if reflect.PointerTo(ft).Implements(initType) {
			md.steps = append(md.steps, constructStep{plainPath: sub, plainType: ft})
		}
	}
	lv := &levelInfo{typ: t, model: model, path: path, ownInit: declaresInit(t)}
	fields, err := extractLocals(model, t, path, cfg)
	if err != nil {
		return err
	}
	lv.fields = fields
	md.steps = append(md.steps, constructStep{level: lv})
	return nil
}

// checkBase verifies that the leaf model embeds the configured base
// model somewhere in its ancestry.
func (md *modelDescriptor) checkBase(base Interface) error {
	bt := indirectType(reflect.TypeOf(base))
	if md.typ == bt {
		return nil
	}
	for _, lv := range md.ancestry {
		if lv.typ == bt {
			return nil
		}
	}
	return NewInvalidFieldDeclarationError(md.typ.Name(), "", fmt.Errorf("model does not embed the configured base model %s", bt.Name()))
}

// extractLocals reads the fields and rels declared directly on one
// ancestry level and resolves each against the leaf struct layout.
func extractLocals(model Interface, t reflect.Type, path []int, cfg Config) ([]*fieldDescriptor, error) {
	declared, err := safeFields(model)
	if err != nil {
		return nil, NewInvalidFieldDeclarationError(t.Name(), "", err)
	}
	rels, err := safeRels(model)
	if err != nil {
		return nil, NewInvalidFieldDeclarationError(t.Name(), "", err)
	}
	out := make([]*fieldDescriptor, 0, len(declared)+len(rels))
	seen := make(map[string]bool, len(declared)+len(rels))
	covered := make(map[string]bool)
	for _, f := range declared {
		desc := f.Descriptor()
		if desc.Err != nil {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, desc.Err)
		}
		if !desc.Type.Valid() {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("invalid field type"))
		}
		if seen[desc.Name] {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("field declared more than once"))
		}
		seen[desc.Name] = true
		sf, ok := resolveStructField(t, desc.Name)
		if !ok {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("no exported struct field matches declaration"))
		}
		if len(sf.Index) == 1 {
			covered[sf.Name] = true
		}
		fd := &fieldDescriptor{
			name:       desc.Name,
			kind:       kindPrimitive,
			prim:       desc.Type,
			def:        desc.Default,
			hasDefault: desc.HasDefault || desc.Optional,
			required:   !desc.HasDefault && !desc.Optional,
			allowNone:  desc.Nillable || desc.Optional,
			external:   desc.External,
			index:      appendPath(path, sf.Index...),
			goType:     sf.Type,
		}
		if desc.Type == field.TypeRaw {
			if k := indirectType(sf.Type).Kind(); k != reflect.Map {
				return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("raw field requires a map struct field, got %s", sf.Type))
			}
		}
		out = append(out, fd)
	}
	for _, r := range rels {
		desc := r.Descriptor()
		if desc.Err != nil {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, desc.Err)
		}
		related, ok := desc.Model.(Interface)
		if !ok {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("related model %T does not declare a schema", desc.Model))
		}
		if seen[desc.Name] {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("field declared more than once"))
		}
		seen[desc.Name] = true
		sf, ok := resolveStructField(t, desc.Name)
		if !ok {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, fmt.Errorf("no exported struct field matches declaration"))
		}
		if len(sf.Index) == 1 {
			covered[sf.Name] = true
		}
		kind := kindOne
		if desc.Many {
			kind = kindMany
		}
		relatedType := indirectType(reflect.TypeOf(desc.Model))
		if err := checkRelField(sf.Type, relatedType, desc.Many); err != nil {
			return nil, NewInvalidFieldDeclarationError(t.Name(), desc.Name, err)
		}
		out = append(out, &fieldDescriptor{
			name:       desc.Name,
			kind:       kind,
			related:    related,
			hasDefault: desc.Optional,
			required:   !desc.Optional,
			allowNone:  desc.Nillable || desc.Optional,
			external:   desc.External,
			index:      appendPath(path, sf.Index...),
			goType:     sf.Type,
		})
	}
	if cfg.DisallowUndeclared {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.Anonymous || sf.PkgPath != "" || covered[sf.Name] {
				continue
			}
			return nil, NewInvalidFieldDeclarationError(t.Name(), sf.Name, fmt.Errorf("exported struct field has no declaration"))
		}
	}
	return out, nil
}

// checkRelField validates the struct field shape of a nested
// reference: a struct or pointer for One, a slice for Many.
func checkRelField(ft, related reflect.Type, many bool) error {
	if many {
		if ft.Kind() != reflect.Slice {
			return fmt.Errorf("many reference requires a slice struct field, got %s", ft)
		}
		if indirectType(ft.Elem()) != related {
			return fmt.Errorf("slice element %s does not match related model %s", ft.Elem(), related.Name())
		}
		return nil
	}
	if indirectType(ft) != related {
		return fmt.Errorf("struct field %s does not match related model %s", ft, related.Name())
	}
	return nil
}

// asModel returns a zero declaration value for a struct type that
// implements Interface on either receiver form.
func asModel(t reflect.Type) (Interface, bool) {
	if m, ok := reflect.New(t).Elem().Interface().(Interface); ok {
		return m, true
	}
	if m, ok := reflect.New(t).Interface().(Interface); ok {
		return m, true
	}
	return nil, false
}

// resolveStructField maps a declared name like "status_code" to the
// exported struct field StatusCode, including promoted fields. The
// match ignores case and underscores, so acronym fields such as URL
// resolve without inflection rules.
func resolveStructField(t reflect.Type, name string) (reflect.StructField, bool) {
	compact := strings.ReplaceAll(name, "_", "")
	sf, ok := t.FieldByNameFunc(func(n string) bool {
		return strings.EqualFold(n, compact)
	})
	if !ok || sf.PkgPath != "" {
		return reflect.StructField{}, false
	}
	return sf, true
}

// declaresInit reports whether the type's Init hook is its own rather
// than promoted from an embedded struct. A promoted-only hook already
// runs at the embedded level; running it again would violate the
// exactly-once guarantee.
func declaresInit(t reflect.Type) bool {
	if !reflect.PointerTo(t).Implements(initType) {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && reflect.PointerTo(ft).Implements(initType) {
			return false
		}
	}
	return true
}

// safeFields wraps the model's Fields method with recover so a
// panicking declaration reports as an error instead of unwinding
// derivation.
func safeFields(model Interface) (fields []Field, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Fields panics: %v", model, v)
			fields = nil
		}
	}()
	return model.Fields(), nil
}

// safeRels wraps the model's Rels method with recover.
func safeRels(model Interface) (rels []Rel, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Rels panics: %v", model, v)
			rels = nil
		}
	}()
	return model.Rels(), nil
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// appendPath joins index paths without aliasing the prefix slice.
func appendPath(path []int, idx ...int) []int {
	out := make([]int, 0, len(path)+len(idx))
	out = append(out, path...)
	return append(out, idx...)
}
