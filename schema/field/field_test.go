package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/marsh/schema/field"
)

func TestTypeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "string", field.TypeString.String())
	assert.Equal(t, "url", field.TypeURL.String())
	assert.Equal(t, "invalid", field.TypeInvalid.String())
	assert.Equal(t, "invalid(99)", field.Type(99).String())
}

func TestTypeValid(t *testing.T) {
	t.Parallel()
	assert.False(t, field.TypeInvalid.Valid())
	assert.True(t, field.TypeBool.Valid())
	assert.True(t, field.TypeUUID.Valid())
	assert.False(t, field.Type(99).Valid())
}

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()
	desc := field.Int("age").Default(0).Descriptor()
	require.NoError(t, desc.Err)
	assert.Equal(t, "age", desc.Name)
	assert.Equal(t, field.TypeInt, desc.Type)
	assert.True(t, desc.HasDefault)
	assert.Equal(t, 0, desc.Default)
	assert.False(t, desc.Optional)
	assert.False(t, desc.Nillable)
}

func TestBuilderNilDefault(t *testing.T) {
	t.Parallel()
	desc := field.String("comment").Default(nil).Descriptor()
	require.NoError(t, desc.Err)
	assert.True(t, desc.HasDefault)
	assert.True(t, desc.Optional)
	assert.True(t, desc.Nillable, "a nil default implies null is acceptable")
}

func TestBuilderOptional(t *testing.T) {
	t.Parallel()
	desc := field.String("comment").Optional().Descriptor()
	require.NoError(t, desc.Err)
	assert.True(t, desc.Optional)
	assert.True(t, desc.Nillable)
	assert.False(t, desc.HasDefault)
}

func TestBuilderNillableOnly(t *testing.T) {
	t.Parallel()
	desc := field.Time("expires").Nillable().Descriptor()
	require.NoError(t, desc.Err)
	assert.True(t, desc.Nillable)
	assert.False(t, desc.Optional, "nillable alone does not make a field optional")
}

func TestBuilderDefaultFunc(t *testing.T) {
	t.Parallel()
	desc := field.Int("seq").DefaultFunc(func() int { return 7 }).Descriptor()
	require.NoError(t, desc.Err)
	assert.True(t, desc.HasDefault)
	assert.NotNil(t, desc.Default)

	tests := []struct {
		name string
		fn   any
	}{
		{"not a func", 42},
		{"nil", nil},
		{"takes arguments", func(int) int { return 0 }},
		{"two results", func() (int, error) { return 0, nil }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			desc := field.Int("seq").DefaultFunc(tt.fn).Descriptor()
			assert.Error(t, desc.Err)
		})
	}
}

func TestBuilderExternalAndComment(t *testing.T) {
	t.Parallel()
	desc := field.String("mime_type").External("mimeType").Comment("MIME type of the body").Descriptor()
	require.NoError(t, desc.Err)
	assert.Equal(t, "mimeType", desc.External)
	assert.Equal(t, "MIME type of the body", desc.Comment)
}

func TestBuilderEmptyName(t *testing.T) {
	t.Parallel()
	desc := field.String("").Descriptor()
	assert.Error(t, desc.Err)
}
