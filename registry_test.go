package marsh_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/marsh"
	"github.com/syssam/marsh/codec"
	"github.com/syssam/marsh/schema/field"
)

type session struct {
	marsh.Schema
	ID   uuid.UUID
	User string
}

func (session) Fields() []marsh.Field {
	return []marsh.Field{
		field.UUID("id"),
		field.String("user"),
	}
}

func TestRegistryCustomCodec(t *testing.T) {
	t.Parallel()
	reg := marsh.NewRegistry(marsh.WithCodec(field.TypeUUID, codec.UUID))
	ctx := context.Background()

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	repr, err := marsh.Dump(ctx, reg, session{ID: id, User: "ana"})
	require.NoError(t, err)
	assert.Equal(t, id.String(), repr["id"])

	loaded, err := marsh.Load[session](ctx, reg, repr)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)

	badID := map[string]any{"id": "not-a-uuid", "user": "ana"}
	_, err = marsh.Load[session](ctx, reg, badID)
	require.Error(t, err)
	verr, ok := marsh.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "/id", verr.Violations[0].Path)
	assert.Equal(t, marsh.CodeInvalidFormat, verr.Violations[0].Code)
}

func TestRegisterCodecValidation(t *testing.T) {
	t.Parallel()
	reg := marsh.NewRegistry()
	assert.Error(t, reg.RegisterCodec(field.TypeInvalid, codec.UUID))
	assert.Error(t, reg.RegisterCodec(field.TypeUUID, nil))
	assert.NoError(t, reg.RegisterCodec(field.TypeUUID, codec.UUID))
}

func TestRegisterCodecAfterDerive(t *testing.T) {
	t.Parallel()
	reg := marsh.NewRegistry()
	def, err := reg.Derive(Person{})
	require.NoError(t, err)

	// Definitions keep the codecs they were derived with.
	require.NoError(t, reg.RegisterCodec(field.TypeInt, codec.Float))
	again, err := reg.Derive(Person{})
	require.NoError(t, err)
	assert.Same(t, def, again)
}

func TestDeriveFailureDropsInitHook(t *testing.T) {
	t.Parallel()
	reg := marsh.NewRegistry()
	hook := func(instance any, values map[string]any) error {
		instance.(*session).User = "hooked"
		return nil
	}

	// No uuid codec is registered yet, so the derivation fails and the
	// registry keeps nothing from the call, the hook included.
	_, err := reg.Derive(session{}, marsh.WithInit(hook))
	require.Error(t, err)
	assert.True(t, marsh.IsUnknownFieldType(err))

	require.NoError(t, reg.RegisterCodec(field.TypeUUID, codec.UUID))
	s, err := marsh.New[session](reg, map[string]any{"id": uuid.Nil, "user": "ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana", s.User)
}

func TestRegistryConcurrentDerive(t *testing.T) {
	t.Parallel()
	reg := marsh.NewRegistry()

	var wg sync.WaitGroup
	defs := make([]*marsh.SchemaDefinition, 8)
	for i := range defs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			def, err := reg.Derive(Contact{})
			assert.NoError(t, err)
			defs[i] = def
		}(i)
	}
	wg.Wait()
	for _, def := range defs[1:] {
		assert.Same(t, defs[0], def)
	}
}
