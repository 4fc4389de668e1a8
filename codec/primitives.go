package codec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"
)

// Bool returns a codec for boolean values.
func Bool(opts Options) Codec { return &boolCodec{opts: opts} }

// String returns a codec for string values.
func String(opts Options) Codec { return &stringCodec{opts: opts} }

// URL returns a codec for absolute URL strings. Both directions reject
// values that do not parse as a URL with a scheme.
func URL(opts Options) Codec { return &urlCodec{opts: opts} }

// Int returns a codec for integer values. Decoding accepts any integer
// kind, integral floats, and json.Number; the in-memory form is int64.
func Int(opts Options) Codec { return &intCodec{opts: opts} }

// Float returns a codec for floating point values.
func Float(opts Options) Codec { return &floatCodec{opts: opts} }

// Time returns a codec for time.Time values serialized in RFC 3339
// format. Decoding also accepts fractional seconds.
func Time(opts Options) Codec { return &timeCodec{opts: opts} }

// Bytes returns a codec for byte slices serialized as standard base64.
func Bytes(opts Options) Codec { return &bytesCodec{opts: opts} }

// Raw returns a passthrough codec for untyped key-value blobs.
func Raw(opts Options) Codec { return &rawCodec{opts: opts} }

type boolCodec struct{ opts Options }

func (c *boolCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	b, ok := v.(bool)
	if !ok {
		return nil, errInvalidType(fmt.Sprintf("expected bool, got %T", v))
	}
	return b, nil
}

func (c *boolCodec) Decode(ctx context.Context, v any) (any, error) { return c.Encode(ctx, v) }

type stringCodec struct{ opts Options }

func (c *stringCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	s, ok := v.(string)
	if !ok {
		return nil, errInvalidType(fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

func (c *stringCodec) Decode(ctx context.Context, v any) (any, error) { return c.Encode(ctx, v) }

type urlCodec struct{ opts Options }

func (c *urlCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	s, ok := v.(string)
	if !ok {
		return nil, errInvalidType(fmt.Sprintf("expected url string, got %T", v))
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return nil, errInvalidFormat(fmt.Sprintf("invalid url %q", s))
	}
	return s, nil
}

func (c *urlCodec) Decode(ctx context.Context, v any) (any, error) { return c.Encode(ctx, v) }

type intCodec struct{ opts Options }

func (c *intCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (c *intCodec) Decode(ctx context.Context, v any) (any, error) { return c.Encode(ctx, v) }

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, errInvalidFormat(fmt.Sprintf("integer overflow: %d", n))
		}
		return int64(n), nil
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, errInvalidFormat(fmt.Sprintf("invalid integer %q", string(n)))
		}
		return floatToInt64(f)
	default:
		return 0, errInvalidType(fmt.Sprintf("expected integer, got %T", v))
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errInvalidFormat(fmt.Sprintf("expected integer, got %v", f))
	}
	return int64(f), nil
}

type floatCodec struct{ opts Options }

func (c *floatCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("invalid float %q", string(n)))
		}
		return f, nil
	default:
		return nil, errInvalidType(fmt.Sprintf("expected float, got %T", v))
	}
}

func (c *floatCodec) Decode(ctx context.Context, v any) (any, error) { return c.Encode(ctx, v) }

type timeCodec struct{ opts Options }

func (c *timeCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, errInvalidType(fmt.Sprintf("expected time.Time, got %T", v))
	}
	return t.Format(time.RFC3339), nil
}

func (c *timeCodec) Decode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, nil
		}
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("invalid RFC 3339 time %q", t))
		}
		return parsed, nil
	default:
		return nil, errInvalidType(fmt.Sprintf("expected RFC 3339 string, got %T", v))
	}
}

type bytesCodec struct{ opts Options }

func (c *bytesCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, errInvalidType(fmt.Sprintf("expected []byte, got %T", v))
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (c *bytesCodec) Decode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		decoded, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("invalid base64 string: %v", err))
		}
		return decoded, nil
	default:
		return nil, errInvalidType(fmt.Sprintf("expected base64 string, got %T", v))
	}
}

type rawCodec struct{ opts Options }

func (c *rawCodec) Encode(_ context.Context, v any) (any, error) {
	if v == nil {
		return nilValue(c.opts)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errInvalidType(fmt.Sprintf("expected map[string]any, got %T", v))
	}
	return m, nil
}

func (c *rawCodec) Decode(ctx context.Context, v any) (any, error) { return c.Encode(ctx, v) }

// nilValue resolves a nil input against the codec configuration: nil
// passes through when null is allowed and fails otherwise.
func nilValue(opts Options) (any, error) {
	if opts.AllowNone {
		return nil, nil
	}
	return nil, errNull()
}
