package marsh

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/syssam/marsh/codec"
	"github.com/syssam/marsh/schema/field"
)

// Registry binds field types to codec factories and caches derived
// schema definitions. A Registry is safe for concurrent use; Derive
// serializes writers while Schema lookups proceed under a read lock.
type Registry struct {
	cfg Config

	mu        sync.RWMutex
	codecs    map[field.Type]codec.Factory
	schemas   map[reflect.Type]*SchemaDefinition
	deriving  map[reflect.Type]bool
	initHooks map[reflect.Type]InitFunc
}

// InitFunc is an explicit construction hook registered with WithInit.
// It receives the addressable instance under construction and the
// original keyword values.
type InitFunc func(instance any, values map[string]any) error

// DeriveOption configures a single Derive call.
type DeriveOption func(*deriveOptions)

type deriveOptions struct {
	init InitFunc
}

// WithInit registers an explicit construction hook for the derived
// model, overriding method-based hook detection. The hook also applies
// when the model later appears as an ancestor of another derivation.
func WithInit(fn InitFunc) DeriveOption {
	return func(o *deriveOptions) {
		o.init = fn
	}
}

// NewRegistry returns a registry with the built-in codec factories
// installed. Factories given through WithCodec take precedence over
// the built-ins for the same field type.
func NewRegistry(opts ...Option) *Registry {
	cfg := Config{FieldNamer: IdentityNamer}
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Registry{
		cfg: cfg,
		codecs: map[field.Type]codec.Factory{
			field.TypeBool:   codec.Bool,
			field.TypeString: codec.String,
			field.TypeURL:    codec.URL,
			field.TypeInt:    codec.Int,
			field.TypeFloat:  codec.Float,
			field.TypeTime:   codec.Time,
			field.TypeBytes:  codec.Bytes,
			field.TypeRaw:    codec.Raw,
		},
		schemas:   make(map[reflect.Type]*SchemaDefinition),
		deriving:  make(map[reflect.Type]bool),
		initHooks: make(map[reflect.Type]InitFunc),
	}
	for t, f := range cfg.Codecs {
		r.codecs[t] = f
	}
	return r
}

// RegisterCodec binds a codec factory to a field type, replacing any
// previous binding. Definitions derived before the call keep the
// codecs they were built with.
func (r *Registry) RegisterCodec(t field.Type, f codec.Factory) error {
	if !t.Valid() {
		return NewUnknownFieldTypeError(t.String())
	}
	if f == nil {
		return fmt.Errorf("marsh: nil codec factory for type %s", t)
	}
	r.mu.Lock()
	r.codecs[t] = f
	r.mu.Unlock()
	return nil
}

// Derive builds the schema definition for a model, deriving nested
// reference models along the way. Derivation is idempotent: a second
// call for the same model returns the cached definition. On error
// nothing is published, so a failed derivation can be retried after
// the declaration is fixed.
func (r *Registry) Derive(model Interface, opts ...DeriveOption) (*SchemaDefinition, error) {
	var o deriveOptions
	for _, opt := range opts {
		opt(&o)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t := indirectType(reflect.TypeOf(model))
	if def, ok := r.schemas[t]; ok {
		if o.init != nil {
			r.initHooks[t] = o.init
		}
		return def, nil
	}
	staged := make(map[reflect.Type]*SchemaDefinition)
	def, err := r.derive(model, staged)
	if err != nil {
		return nil, err
	}
	for dt, dd := range staged {
		r.schemas[dt] = dd
	}
	if o.init != nil {
		r.initHooks[t] = o.init
	}
	return def, nil
}

// MustDerive is like Derive but panics on error. It is intended for
// package-level schema variables where a broken declaration should
// fail at startup.
func (r *Registry) MustDerive(model Interface, opts ...DeriveOption) *SchemaDefinition {
	def, err := r.Derive(model, opts...)
	if err != nil {
		panic(err)
	}
	return def
}

// Schema returns the derived definition for a model, or a
// MissingSchemaError when the model was never derived.
func (r *Registry) Schema(model Interface) (*SchemaDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := indirectType(reflect.TypeOf(model))
	def, ok := r.schemas[t]
	if !ok {
		return nil, NewMissingSchemaError(t.Name())
	}
	return def, nil
}
