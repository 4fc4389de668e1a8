package marsh

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/syssam/marsh/codec"
	"github.com/syssam/marsh/internal/sift"
)

// DumpOption configures a single Dump call.
type DumpOption func(*dumpOptions)

type dumpOptions struct {
	failFast bool
}

// DumpFailFast reports only the first dump violation instead of
// collecting all of them.
func DumpFailFast() DumpOption {
	return func(o *dumpOptions) { o.failFast = true }
}

// LoadOption configures a single Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	failFast        bool
	partial         bool
	disallowUnknown bool
}

// FailFast reports only the first load violation instead of
// collecting all of them.
func FailFast() LoadOption {
	return func(o *loadOptions) { o.failFast = true }
}

// Partial skips required-field enforcement, so a load can apply a
// fragment of the serialized representation.
func Partial() LoadOption {
	return func(o *loadOptions) { o.partial = true }
}

// DisallowUnknown reports keys with no matching field as violations.
// By default unknown keys are dropped.
func DisallowUnknown() LoadOption {
	return func(o *loadOptions) { o.disallowUnknown = true }
}

// New constructs an instance of the definition's model from keyword
// values keyed by declared field name. Omitted fields take their
// declared defaults; omitted required fields are reported together in
// a ValidationError.
func (d *SchemaDefinition) New(values map[string]any) (any, error) {
	out := reflect.New(d.typ)
	if err := d.construct(out.Elem(), values, nil); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Dump serializes a model instance to a map keyed by external field
// names. Violations across all fields are collected into a single
// ValidationError.
func (d *SchemaDefinition) Dump(ctx context.Context, model any, opts ...DumpOption) (map[string]any, error) {
	var o dumpOptions
	for _, opt := range opts {
		opt(&o)
	}
	rv := reflect.Indirect(reflect.ValueOf(model))
	if !rv.IsValid() || rv.Type() != d.typ {
		return nil, fmt.Errorf("marsh: cannot dump %T with the %s schema", model, d.name)
	}
	out, violations := d.dump(ctx, rv)
	if o.failFast && len(violations) > 1 {
		violations = violations[:1]
	}
	if err := NewValidationError(d.name, violations); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *SchemaDefinition) dump(ctx context.Context, rv reflect.Value) (map[string]any, []Violation) {
	out := make(map[string]any, len(d.fields))
	var violations []Violation
	for _, fc := range d.fields {
		src := rv.FieldByIndex(fc.index)
		path := "/" + fc.ExternalName
		switch fc.kind {
		case kindPrimitive:
			v := exportValue(src)
			if v == nil {
				if !fc.AllowNone {
					violations = append(violations, Violation{Path: path, Code: CodeNull, Message: "null is not allowed"})
					continue
				}
				out[fc.ExternalName] = nil
				continue
			}
			encoded, err := fc.Codec.Encode(ctx, v)
			if err != nil {
				violations = append(violations, violationAt(path, err))
				continue
			}
			out[fc.ExternalName] = encoded
		case kindOne:
			elem := src
			if elem.Kind() == reflect.Pointer {
				if elem.IsNil() {
					if !fc.AllowNone {
						violations = append(violations, Violation{Path: path, Code: CodeNull, Message: "null is not allowed"})
						continue
					}
					out[fc.ExternalName] = nil
					continue
				}
				elem = elem.Elem()
			}
			m, nested := fc.Nested.dump(ctx, elem)
			violations = append(violations, rebase(path, nested)...)
			out[fc.ExternalName] = m
		case kindMany:
			items := make([]any, 0, src.Len())
			for i := 0; i < src.Len(); i++ {
				elem := src.Index(i)
				epath := path + "/" + strconv.Itoa(i)
				if elem.Kind() == reflect.Pointer {
					if elem.IsNil() {
						items = append(items, nil)
						continue
					}
					elem = elem.Elem()
				}
				m, nested := fc.Nested.dump(ctx, elem)
				violations = append(violations, rebase(epath, nested)...)
				items = append(items, m)
			}
			out[fc.ExternalName] = items
		}
	}
	return out, violations
}

// Load deserializes a map keyed by external field names into a new
// model instance, returned as a pointer to the model struct. Decode
// violations and missing required fields are collected into a single
// ValidationError.
func (d *SchemaDefinition) Load(ctx context.Context, data map[string]any, opts ...LoadOption) (any, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	out := reflect.New(d.typ)
	if err := d.loadInto(ctx, out.Elem(), data, o); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (d *SchemaDefinition) loadInto(ctx context.Context, target reflect.Value, data map[string]any, o loadOptions) error {
	kwargs, rejected, violations, err := d.decode(ctx, data, o)
	if err != nil {
		return err
	}
	err = d.construct(target, kwargs, rejected)
	if verr, ok := AsValidation(err); ok {
		violations = append(violations, d.externalize(verr.Violations)...)
	} else if err != nil {
		return err
	}
	if o.partial {
		violations = dropCode(violations, CodeRequired)
	}
	if o.failFast && len(violations) > 1 {
		violations = violations[:1]
	}
	return NewValidationError(d.name, violations)
}

// decode turns serialized values into constructor keywords, decoding
// primitives through their codecs and loading nested references
// recursively. Fields whose supplied value failed to decode are
// returned in rejected so the constructor skips its missing-field
// check for them.
func (d *SchemaDefinition) decode(ctx context.Context, data map[string]any, o loadOptions) (map[string]any, map[string]bool, []Violation, error) {
	var violations []Violation
	rejected := make(map[string]bool)
	if o.disallowUnknown {
		for k := range data {
			if _, ok := d.byExt[k]; !ok {
				violations = append(violations, Violation{Path: "/" + k, Code: CodeUnknownKey, Message: "unknown key"})
			}
		}
	} else {
		data = sift.Keywords(data, d.externalKeys(), false)
	}
	kwargs := make(map[string]any, len(data))
	for _, fc := range d.fields {
		raw, ok := data[fc.ExternalName]
		if !ok {
			continue
		}
		path := "/" + fc.ExternalName
		if raw == nil {
			if !fc.AllowNone {
				violations = append(violations, Violation{Path: path, Code: CodeNull, Message: "null is not allowed"})
				rejected[fc.Name] = true
				continue
			}
			kwargs[fc.Name] = nil
			continue
		}
		switch fc.kind {
		case kindPrimitive:
			v, err := fc.Codec.Decode(ctx, raw)
			if err != nil {
				violations = append(violations, violationAt(path, err))
				rejected[fc.Name] = true
				continue
			}
			kwargs[fc.Name] = v
		case kindOne:
			m, ok := raw.(map[string]any)
			if !ok {
				violations = append(violations, Violation{Path: path, Code: CodeInvalidType, Message: fmt.Sprintf("expected object, got %T", raw)})
				rejected[fc.Name] = true
				continue
			}
			nested := reflect.New(fc.Nested.typ).Elem()
			if err := fc.Nested.loadInto(ctx, nested, m, nestedOptions(o)); err != nil {
				verr, ok := AsValidation(err)
				if !ok {
					return nil, nil, nil, err
				}
				violations = append(violations, rebase(path, verr.Violations)...)
				rejected[fc.Name] = true
				continue
			}
			kwargs[fc.Name] = nested.Interface()
		case kindMany:
			arr, ok := raw.([]any)
			if !ok {
				violations = append(violations, Violation{Path: path, Code: CodeInvalidType, Message: fmt.Sprintf("expected array, got %T", raw)})
				rejected[fc.Name] = true
				continue
			}
			items := make([]any, 0, len(arr))
			bad := false
			for i, item := range arr {
				epath := path + "/" + strconv.Itoa(i)
				if item == nil {
					items = append(items, nil)
					continue
				}
				m, ok := item.(map[string]any)
				if !ok {
					violations = append(violations, Violation{Path: epath, Code: CodeInvalidType, Message: fmt.Sprintf("expected object, got %T", item)})
					bad = true
					continue
				}
				nested := reflect.New(fc.Nested.typ).Elem()
				if err := fc.Nested.loadInto(ctx, nested, m, nestedOptions(o)); err != nil {
					verr, ok := AsValidation(err)
					if !ok {
						return nil, nil, nil, err
					}
					violations = append(violations, rebase(epath, verr.Violations)...)
					bad = true
					continue
				}
				items = append(items, nested.Interface())
			}
			if bad {
				rejected[fc.Name] = true
			} else {
				kwargs[fc.Name] = items
			}
		}
	}
	return kwargs, rejected, violations, nil
}

// nestedOptions strips call-shape options that apply to the outer map
// only; strictness options propagate into nested loads.
func nestedOptions(o loadOptions) loadOptions {
	return loadOptions{partial: o.partial, disallowUnknown: o.disallowUnknown}
}

func (d *SchemaDefinition) externalKeys() []string {
	keys := make([]string, 0, len(d.byExt))
	for k := range d.byExt {
		keys = append(keys, k)
	}
	return keys
}

// externalize rewrites constructor violation paths, which use declared
// names, to the external names load callers see.
func (d *SchemaDefinition) externalize(violations []Violation) []Violation {
	out := make([]Violation, len(violations))
	for i, v := range violations {
		if fc, ok := d.byName[v.Path[1:]]; ok {
			v.Path = "/" + fc.ExternalName
		}
		out[i] = v
	}
	return out
}

func dropCode(violations []Violation, code string) []Violation {
	out := violations[:0]
	for _, v := range violations {
		if v.Code != code {
			out = append(out, v)
		}
	}
	return out
}

// rebase prefixes nested violation paths with the field's location.
func rebase(prefix string, violations []Violation) []Violation {
	out := make([]Violation, len(violations))
	for i, v := range violations {
		v.Path = prefix + v.Path
		out[i] = v
	}
	return out
}

// violationAt maps a codec error to a violation at path.
func violationAt(path string, err error) Violation {
	var ce *codec.Error
	if errors.As(err, &ce) {
		return Violation{Path: path, Code: ce.Code, Message: ce.Message}
	}
	return Violation{Path: path, Code: CodeInvalidType, Message: err.Error()}
}

// exportValue unwraps a struct field for encoding, mapping nil
// pointers and nil collections of non-collection semantics to nil.
func exportValue(src reflect.Value) any {
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			return nil
		}
		src = src.Elem()
	}
	return src.Interface()
}

// New derives the model's schema if needed and constructs an instance
// from keyword values keyed by declared field name.
func New[T Interface](r *Registry, values map[string]any) (*T, error) {
	def, err := deriveFor[T](r)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := def.construct(reflect.ValueOf(out).Elem(), values, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Load derives the model's schema if needed and deserializes data into
// a new instance.
func Load[T Interface](ctx context.Context, r *Registry, data map[string]any, opts ...LoadOption) (*T, error) {
	def, err := deriveFor[T](r)
	if err != nil {
		return nil, err
	}
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	out := new(T)
	if err := def.loadInto(ctx, reflect.ValueOf(out).Elem(), data, o); err != nil {
		return nil, err
	}
	return out, nil
}

// Dump derives the model's schema if needed and serializes the
// instance to a map keyed by external field names.
func Dump(ctx context.Context, r *Registry, model Interface, opts ...DumpOption) (map[string]any, error) {
	def, err := r.Derive(model)
	if err != nil {
		return nil, err
	}
	return def.Dump(ctx, model, opts...)
}

func deriveFor[T Interface](r *Registry) (*SchemaDefinition, error) {
	var zero T
	return r.Derive(zero)
}
