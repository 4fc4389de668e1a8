package marsh_test

import (
	"sync/atomic"

	"github.com/syssam/marsh"
	"github.com/syssam/marsh/schema/field"
	"github.com/syssam/marsh/schema/rel"
)

// Person is the minimal two-field model used across the round-trip
// tests: one required field and one defaulted field.
type Person struct {
	marsh.Schema
	Name string
	Age  int
}

func (Person) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("name"),
		field.Int("age").Default(0),
	}
}

// Creator and Browser model a one-level inheritance chain.
type Creator struct {
	marsh.Schema
	Name    string
	Version string
}

func (Creator) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("name"),
		field.String("version").Default("1.0"),
	}
}

type Browser struct {
	Creator
	Comment string
}

func (Browser) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("comment").Optional(),
	}
}

// Address, Contact exercise nested references in both arities.
type Address struct {
	marsh.Schema
	City string
	Zip  string
}

func (Address) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("city"),
		field.String("zip").Optional(),
	}
}

type Contact struct {
	marsh.Schema
	Name    string
	Home    *Address
	Offices []Address
}

func (Contact) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("name"),
	}
}

func (Contact) Rels() []marsh.Rel {
	return []marsh.Rel{
		rel.One("home", Address{}).Optional().Nillable(),
		rel.Many("offices", Address{}).Optional(),
	}
}

// Shipment requires its element list, so tests can observe that a bad
// element does not also surface as a missing list.
type Shipment struct {
	marsh.Schema
	Ref   string
	Stops []Address
}

func (Shipment) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("ref"),
	}
}

func (Shipment) Rels() []marsh.Rel {
	return []marsh.Rel{
		rel.Many("stops", Address{}),
	}
}

// Payload carries a free-form blob.
type Payload struct {
	marsh.Schema
	Meta map[string]any
}

func (Payload) Fields() []marsh.Field {
	return []marsh.Field{
		field.Raw("meta").Optional(),
	}
}

// seqCalls counts invocations of the sequence default factory.
var seqCalls atomic.Int64

// Ticket carries a function default so tests can observe that the
// factory runs exactly once per construction.
type Ticket struct {
	marsh.Schema
	Seq   int
	Label string
}

func (Ticket) Fields() []marsh.Field {
	return []marsh.Field{
		field.Int("seq").DefaultFunc(func() int {
			return int(seqCalls.Add(1))
		}),
		field.String("label").Optional(),
	}
}

// Stamped, Issue, Bug form a three-level chain with an Init hook on
// the root level. The hook records how many times it ran on the
// instance itself.
type Stamped struct {
	marsh.Schema
	Stamp     string
	InitCount int
}

func (Stamped) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("stamp").Optional(),
	}
}

func (s *Stamped) Init(values map[string]any) error {
	s.InitCount++
	if s.Stamp == "" {
		s.Stamp = "stamped"
	}
	return nil
}

type Issue struct {
	Stamped
	Title string
}

func (Issue) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("title"),
	}
}

type Bug struct {
	Issue
	Severity string
}

func (Bug) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("severity").Default("minor"),
	}
}

// Shadowed re-declares an inherited field with a different default.
type Labeled struct {
	marsh.Schema
	Kind string
}

func (Labeled) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("kind").Default("generic"),
	}
}

type Widget struct {
	Labeled
}

func (Widget) Fields() []marsh.Field {
	return []marsh.Field{
		field.String("kind").Default("widget"),
	}
}

// Ping and Pong reference each other, forming a schema cycle.
type Ping struct {
	marsh.Schema
	Peer *Pong
}

func (Ping) Rels() []marsh.Rel {
	return []marsh.Rel{
		rel.One("peer", Pong{}).Optional().Nillable(),
	}
}

type Pong struct {
	marsh.Schema
	Peer *Ping
}

func (Pong) Rels() []marsh.Rel {
	return []marsh.Rel{
		rel.One("peer", Ping{}).Optional().Nillable(),
	}
}

// Renamed exercises the external naming precedence chain.
type Renamed struct {
	marsh.Schema
	StatusCode int
	MimeType   string
	BodySize   int
}

func (Renamed) Fields() []marsh.Field {
	return []marsh.Field{
		field.Int("status_code").Default(200),
		field.String("mime_type").Default("text/plain").External("mimeType"),
		field.Int("body_size").Default(0),
	}
}

func (Renamed) ExternalNames() map[string]string {
	return map[string]string{
		"status_code": "status",
		"mime_type":   "ignored-by-field-override",
	}
}
