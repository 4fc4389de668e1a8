package marsh

import (
	"github.com/go-openapi/inflect"

	"github.com/syssam/marsh/codec"
	"github.com/syssam/marsh/schema/field"
)

// Config holds the registry-wide derivation settings.
type Config struct {
	// FieldNamer transforms a declared field name into its external
	// key. Identity when nil. Per-field External declarations and
	// model ExternalNames tables take precedence.
	FieldNamer func(string) string

	// Codecs merges over the built-in codec table. Caller entries
	// take precedence on key collision.
	Codecs map[field.Type]codec.Factory

	// Base is an optional model every derived model must extend by
	// embedding it, giving all schemas a shared root ancestor.
	Base Interface

	// DisallowUndeclared rejects exported struct fields that have no
	// matching declaration instead of ignoring them.
	DisallowUndeclared bool
}

// An Option configures a Registry.
type Option func(*Config)

// WithFieldNamer sets the external naming transform.
func WithFieldNamer(namer func(string) string) Option {
	return func(c *Config) { c.FieldNamer = namer }
}

// WithCodec registers a codec factory for the given field type,
// overriding the built-in on collision.
func WithCodec(t field.Type, f codec.Factory) Option {
	return func(c *Config) {
		if c.Codecs == nil {
			c.Codecs = make(map[field.Type]codec.Factory)
		}
		c.Codecs[t] = f
	}
}

// WithCodecs merges a codec factory table over the built-ins.
func WithCodecs(codecs map[field.Type]codec.Factory) Option {
	return func(c *Config) {
		if c.Codecs == nil {
			c.Codecs = make(map[field.Type]codec.Factory, len(codecs))
		}
		for t, f := range codecs {
			c.Codecs[t] = f
		}
	}
}

// WithBase requires every derived model to embed the given base model
// and mirrors it as the root ancestor of all derived schemas.
func WithBase(base Interface) Option {
	return func(c *Config) { c.Base = base }
}

// WithDisallowUndeclared rejects models whose structs carry exported
// fields with no declaration.
func WithDisallowUndeclared() Option {
	return func(c *Config) { c.DisallowUndeclared = true }
}

// IdentityNamer returns the field name unchanged. It is the default
// naming transform.
func IdentityNamer(name string) string { return name }

// SnakeNamer transforms declared names to snake_case external keys.
func SnakeNamer(name string) string { return inflect.Underscore(name) }

// CamelNamer transforms declared names to lowerCamelCase external keys.
func CamelNamer(name string) string { return inflect.CamelizeDownFirst(name) }
