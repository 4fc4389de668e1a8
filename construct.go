package marsh

import (
	"fmt"
	"reflect"

	"github.com/syssam/marsh/internal/sift"
)

// constructFunc fills an addressable struct value of the definition's
// type from constructor keywords keyed by declared field name. Names in
// rejected mark fields whose value was supplied but already reported
// invalid, so the constructor does not double-report them as missing.
type constructFunc func(target reflect.Value, values map[string]any, rejected map[string]bool) error

// initHook returns the explicit construction hook for a model type,
// when one was registered.
func (r *Registry) initHook(t reflect.Type) (InitFunc, bool) {
	r.mu.RLock()
	fn, ok := r.initHooks[t]
	r.mu.RUnlock()
	return fn, ok
}

// buildConstructor compiles the extracted construction plan into a
// single function. The plan runs root-most ancestor first: embedded
// hook-only structs fire their hooks, each level assigns the fields it
// owns, then the level's own hook runs. Every level appears once in
// the plan, so each field is assigned exactly once per construction.
func (r *Registry) buildConstructor(md *modelDescriptor, fields []*FieldCodec) constructFunc {
	return func(target reflect.Value, values map[string]any, rejected map[string]bool) error {
		var violations []Violation
		for step, cs := range md.steps {
			if cs.level == nil {
				hooked := target.FieldByIndex(cs.plainPath).Addr().Interface().(Initializer)
				if err := hooked.Init(sift.Keywords(values, nil, true)); err != nil {
					return err
				}
				continue
			}
			for _, fc := range fields {
				if fc.owner != step {
					continue
				}
				missing, err := fc.assign(target, values)
				if err != nil {
					return fmt.Errorf("marsh: %s.%s: %w", md.typ.Name(), fc.Name, err)
				}
				if missing && !rejected[fc.Name] {
					violations = append(violations, Violation{
						Path:    "/" + fc.Name,
						Code:    CodeRequired,
						Message: "missing required field",
					})
				}
			}
			if err := r.runLevelInit(cs.level, target, values); err != nil {
				return err
			}
		}
		if verr := NewValidationError(md.typ.Name(), violations); verr != nil {
			return verr
		}
		return nil
	}
}

// runLevelInit fires one level's construction hook: an explicitly
// registered hook wins, otherwise the level's own Init method.
func (r *Registry) runLevelInit(lv *levelInfo, target reflect.Value, values map[string]any) error {
	instance := target.FieldByIndex(lv.path).Addr().Interface()
	if fn, ok := r.initHook(lv.typ); ok {
		return fn(instance, sift.Keywords(values, nil, true))
	}
	if !lv.ownInit {
		return nil
	}
	return instance.(Initializer).Init(sift.Keywords(values, nil, true))
}

// assign writes one field's constructor value, falling back to its
// default. It reports missing=true when a required field has no value.
func (fc *FieldCodec) assign(target reflect.Value, values map[string]any) (missing bool, err error) {
	dst := target.FieldByIndex(fc.index)
	v, ok := values[fc.Name]
	if !ok {
		if fc.Required {
			return true, nil
		}
		return false, fc.assignDefault(dst)
	}
	if v == nil {
		// Null collection values resolve to empty containers, the same
		// shape an absent value takes, so loaded models never carry nil
		// sequences or blobs.
		switch {
		case fc.Many:
			dst.Set(reflect.MakeSlice(dst.Type(), 0, 0))
			return false, nil
		case dst.Kind() == reflect.Map:
			dst.Set(reflect.MakeMap(dst.Type()))
			return false, nil
		}
		return false, assignNil(dst)
	}
	return false, assignValue(dst, v)
}

// assignDefault applies the declared default. Function defaults are
// invoked per construction so mutable values are never shared. Absent
// a default, collections get empty containers rather than nil so a
// freshly built model dumps as [] and {}.
func (fc *FieldCodec) assignDefault(dst reflect.Value) error {
	def := fc.Default
	if def == nil {
		switch {
		case fc.Many || dst.Kind() == reflect.Slice:
			dst.Set(reflect.MakeSlice(dst.Type(), 0, 0))
		case dst.Kind() == reflect.Map:
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		return nil
	}
	rv := reflect.ValueOf(def)
	if rv.Kind() == reflect.Func {
		out := rv.Call(nil)
		return assignValue(dst, out[0].Interface())
	}
	return assignValue(dst, def)
}

// assignNil zeroes a field that can represent absence.
func assignNil(dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign nil to %s", dst.Type())
}

// assignValue writes v into dst, allocating through pointers,
// converting compatible scalars and copying collections element-wise.
func assignValue(dst reflect.Value, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := assignValue(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Slice:
		if rv.Kind() != reflect.Slice {
			break
		}
		out := reflect.MakeSlice(dst.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev := rv.Index(i).Interface()
			if ev == nil {
				if err := assignNil(out.Index(i)); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
				continue
			}
			if err := assignValue(out.Index(i), ev); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		if rv.Kind() != reflect.Map {
			break
		}
		out := reflect.MakeMapWithSize(dst.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := reflect.New(dst.Type().Key()).Elem()
			if err := assignValue(key, iter.Key().Interface()); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			elem := reflect.New(dst.Type().Elem()).Elem()
			ev := iter.Value().Interface()
			if ev != nil {
				if err := assignValue(elem, ev); err != nil {
					return fmt.Errorf("key %v: %w", iter.Key(), err)
				}
			}
			out.SetMapIndex(key, elem)
		}
		dst.Set(out)
		return nil
	}
	if convertibleScalar(rv.Type(), dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return assignValue(dst, rv.Elem().Interface())
	}
	return fmt.Errorf("cannot assign %s to %s", rv.Type(), dst.Type())
}

// convertibleScalar limits reflect conversion to same-family scalars,
// so an int never silently becomes a string.
func convertibleScalar(src, dst reflect.Type) bool {
	if !src.ConvertibleTo(dst) {
		return false
	}
	return scalarFamily(src.Kind()) != 0 && scalarFamily(src.Kind()) == scalarFamily(dst.Kind())
}

func scalarFamily(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	}
	return 0
}
