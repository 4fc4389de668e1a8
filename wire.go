package marsh

import (
	"bytes"
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// DumpJSON serializes a model instance to JSON through its derived
// schema.
func (d *SchemaDefinition) DumpJSON(ctx context.Context, model any, opts ...DumpOption) ([]byte, error) {
	m, err := d.Dump(ctx, model, opts...)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// LoadJSON parses JSON and loads it into a new model instance. Numbers
// decode as json.Number so integer fields keep full precision.
func (d *SchemaDefinition) LoadJSON(ctx context.Context, data []byte, opts ...LoadOption) (any, error) {
	m, err := decodeJSONMap(data)
	if err != nil {
		return nil, err
	}
	return d.Load(ctx, m, opts...)
}

// DumpMsgpack serializes a model instance to msgpack through its
// derived schema.
func (d *SchemaDefinition) DumpMsgpack(ctx context.Context, model any, opts ...DumpOption) ([]byte, error) {
	m, err := d.Dump(ctx, model, opts...)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(m)
}

// LoadMsgpack parses msgpack and loads it into a new model instance.
func (d *SchemaDefinition) LoadMsgpack(ctx context.Context, data []byte, opts ...LoadOption) (any, error) {
	var m map[string]any
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("marsh: decode msgpack: %w", err)
	}
	return d.Load(ctx, m, opts...)
}

// LoadJSON derives the model's schema if needed and loads JSON into a
// new instance.
func LoadJSON[T Interface](ctx context.Context, r *Registry, data []byte, opts ...LoadOption) (*T, error) {
	m, err := decodeJSONMap(data)
	if err != nil {
		return nil, err
	}
	return Load[T](ctx, r, m, opts...)
}

// DumpJSON derives the model's schema if needed and serializes the
// instance to JSON.
func DumpJSON(ctx context.Context, r *Registry, model Interface, opts ...DumpOption) ([]byte, error) {
	def, err := r.Derive(model)
	if err != nil {
		return nil, err
	}
	return def.DumpJSON(ctx, model, opts...)
}

func decodeJSONMap(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("marsh: decode json: %w", err)
	}
	return m, nil
}
