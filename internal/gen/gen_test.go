package gen_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/marsh/internal/gen"
)

const manifest = `
package: models
models:
  - name: Creator
    fields:
      - {name: name, type: string}
      - {name: version, type: string, default: "1.2"}
      - {name: comment, type: string, optional: true}
  - name: Entry
    fields:
      - {name: started_date_time, type: time}
      - {name: time, type: float, default: 0.0}
      - {name: cache, type: raw, optional: true}
      - {name: server_ip_address, type: string, optional: true, external: serverIPAddress}
  - name: Log
    fields:
      - {name: version, type: string, default: "1.2"}
    rels:
      - {name: creator, model: Creator}
      - {name: entries, model: Entry, many: true, optional: true}
  - name: ExtendedCreator
    embeds: [Creator]
    fields:
      - {name: build, type: string, optional: true}
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// readGenerated returns a generated file with gofmt column alignment
// collapsed, so struct members can be matched with single spaces.
func readGenerated(t *testing.T, dir, name string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return strings.Join(strings.Fields(string(src)), " ")
}

func TestReadManifest(t *testing.T) {
	t.Parallel()
	m, err := gen.ReadManifest(writeManifest(t, manifest))
	require.NoError(t, err)
	assert.Equal(t, "models", m.Package)
	require.Len(t, m.Models, 4)
	assert.Equal(t, "Creator", m.Models[0].Name)
	assert.Equal(t, []string{"Creator"}, m.Models[3].Embeds)
}

func TestReadManifestErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"missing package", "models: [{name: A, fields: [{name: x, type: string}]}]"},
		{"no models", "package: p"},
		{"unknown field type", "package: p\nmodels: [{name: A, fields: [{name: x, type: decimal}]}]"},
		{"duplicate model", "package: p\nmodels: [{name: A}, {name: A}]"},
		{"duplicate field", "package: p\nmodels: [{name: A, fields: [{name: x, type: string}, {name: x, type: int}]}]"},
		{"undeclared embed", "package: p\nmodels: [{name: A, embeds: [B]}]"},
		{"undeclared rel target", "package: p\nmodels: [{name: A, rels: [{name: r, model: B}]}]"},
		{"invalid yaml", "package: [p"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := gen.ReadManifest(writeManifest(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	m, err := gen.ReadManifest(writeManifest(t, manifest))
	require.NoError(t, err)

	outDir := t.TempDir()
	require.NoError(t, gen.NewGenerator(m, outDir).Generate(context.Background()))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"creator.go", "entry.go", "log.go", "extended_creator.go"}, names)

	creator := readGenerated(t, outDir, "creator.go")
	assert.Contains(t, creator, "Code generated by marshgen. DO NOT EDIT.")
	assert.Contains(t, creator, "type Creator struct")
	assert.Contains(t, creator, `field.String("version").Default("1.2")`)
	assert.Contains(t, creator, `field.String("comment").Optional()`)

	entry := readGenerated(t, outDir, "entry.go")
	assert.Contains(t, entry, "StartedDateTime time.Time")
	assert.Contains(t, entry, `External("serverIPAddress")`)
	assert.Contains(t, entry, "Cache map[string]any")

	log := readGenerated(t, outDir, "log.go")
	assert.Contains(t, log, `rel.One("creator", Creator{})`)
	assert.Contains(t, log, `rel.Many("entries", Entry{}).Optional()`)
	assert.Contains(t, log, "Entries []Entry")

	extended := readGenerated(t, outDir, "extended_creator.go")
	assert.Contains(t, extended, "type ExtendedCreator struct { Creator ")
	assert.Contains(t, extended, "Build string")
	assert.NotContains(t, extended, "marsh.Schema", "embedding an ancestor replaces the root embed")
}
