package codec

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UUID returns a codec for uuid.UUID values serialized as canonical
// strings. It is not registered by default; callers bind it to
// field.TypeUUID through their registry configuration.
func UUID(opts Options) Codec { return &uuidCodec{opts: opts} }

type uuidCodec struct{ opts Options }

func (c *uuidCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	switch id := v.(type) {
	case uuid.UUID:
		return id.String(), nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("invalid uuid %q", id))
		}
		return parsed.String(), nil
	default:
		return nil, errInvalidType(fmt.Sprintf("expected uuid, got %T", v))
	}
}

func (c *uuidCodec) Decode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("invalid uuid %q", id))
		}
		return parsed, nil
	default:
		return nil, errInvalidType(fmt.Sprintf("expected uuid string, got %T", v))
	}
}
