// Package gen generates model declaration files from a YAML manifest.
// It backs the marshgen command.
package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
)

const (
	marshPkg = "github.com/syssam/marsh"
	fieldPkg = "github.com/syssam/marsh/schema/field"
	relPkg   = "github.com/syssam/marsh/schema/rel"
	uuidPkg  = "github.com/google/uuid"
)

// Generator writes one declaration file per manifest model.
type Generator struct {
	manifest *Manifest
	outDir   string
	workers  int
}

// NewGenerator returns a generator writing to outDir.
func NewGenerator(m *Manifest, outDir string) *Generator {
	return &Generator{
		manifest: m,
		outDir:   outDir,
		workers:  runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *Generator) WithWorkers(n int) *Generator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Generate renders and writes all model files in parallel, one file
// per model, named after the model in snake_case.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, model := range g.manifest.Models {
		model := model
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			name := filepath.Join(g.outDir, inflect.Underscore(model.Name)+".go")
			f, err := g.render(model)
			if err != nil {
				return fmt.Errorf("model %s: %w", model.Name, err)
			}
			if err := f.Save(name); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// render produces the declaration file for one model: the struct, its
// Fields method when fields are declared, and its Rels method when
// references are declared.
func (g *Generator) render(m *Model) (*jen.File, error) {
	f := jen.NewFile(g.manifest.Package)
	f.HeaderComment("Code generated by marshgen. DO NOT EDIT.")

	f.Type().Id(m.Name).StructFunc(func(grp *jen.Group) {
		if len(m.Embeds) == 0 {
			grp.Qual(marshPkg, "Schema")
		}
		for _, e := range m.Embeds {
			grp.Id(e)
		}
		for _, fl := range m.Fields {
			grp.Id(goName(fl.Name)).Add(fieldType(fl))
		}
		for _, r := range m.Rels {
			grp.Id(goName(r.Name)).Add(relType(r))
		}
	})

	if len(m.Fields) > 0 {
		f.Line()
		f.Func().Params(jen.Id(m.Name)).Id("Fields").Params().Index().Qual(marshPkg, "Field").Block(
			jen.Return(jen.Index().Qual(marshPkg, "Field").ValuesFunc(func(grp *jen.Group) {
				for _, fl := range m.Fields {
					grp.Line().Add(fieldBuilder(fl))
				}
				grp.Line()
			})),
		)
	}
	if len(m.Rels) > 0 {
		f.Line()
		f.Func().Params(jen.Id(m.Name)).Id("Rels").Params().Index().Qual(marshPkg, "Rel").Block(
			jen.Return(jen.Index().Qual(marshPkg, "Rel").ValuesFunc(func(grp *jen.Group) {
				for _, r := range m.Rels {
					grp.Line().Add(relBuilder(r))
				}
				grp.Line()
			})),
		)
	}
	return f, nil
}

// fieldType maps a manifest field to its struct field type. Nillable
// scalars generate pointers so null survives the round trip; bytes,
// raw and string already have a natural absent form.
func fieldType(f *FieldSpec) *jen.Statement {
	var base *jen.Statement
	switch f.Type {
	case "bool":
		base = jen.Bool()
	case "string", "url":
		base = jen.String()
	case "int":
		base = jen.Int64()
	case "float":
		base = jen.Float64()
	case "time":
		base = jen.Qual("time", "Time")
	case "bytes":
		return jen.Index().Byte()
	case "raw":
		return jen.Map(jen.String()).Any()
	case "uuid":
		base = jen.Qual(uuidPkg, "UUID")
	default:
		base = jen.Any()
	}
	if f.Nillable || f.Optional {
		switch f.Type {
		case "time", "uuid":
			return jen.Op("*").Add(base)
		}
	}
	return base
}

func relType(r *RelSpec) *jen.Statement {
	if r.Many {
		return jen.Index().Id(r.Model)
	}
	if r.Optional || r.Nillable {
		return jen.Op("*").Id(r.Model)
	}
	return jen.Id(r.Model)
}

func fieldBuilder(f *FieldSpec) *jen.Statement {
	stmt := jen.Qual(fieldPkg, fieldTypes[f.Type]).Call(jen.Lit(f.Name))
	if f.Default != nil {
		stmt.Dot("Default").Call(jen.Lit(f.Default))
	}
	if f.Optional {
		stmt.Dot("Optional").Call()
	} else if f.Nillable {
		stmt.Dot("Nillable").Call()
	}
	if f.External != "" {
		stmt.Dot("External").Call(jen.Lit(f.External))
	}
	if f.Comment != "" {
		stmt.Dot("Comment").Call(jen.Lit(f.Comment))
	}
	return stmt
}

func relBuilder(r *RelSpec) *jen.Statement {
	ctor := "One"
	if r.Many {
		ctor = "Many"
	}
	stmt := jen.Qual(relPkg, ctor).Call(jen.Lit(r.Name), jen.Id(r.Model).Values())
	if r.Optional {
		stmt.Dot("Optional").Call()
	} else if r.Nillable {
		stmt.Dot("Nillable").Call()
	}
	if r.External != "" {
		stmt.Dot("External").Call(jen.Lit(r.External))
	}
	if r.Comment != "" {
		stmt.Dot("Comment").Call(jen.Lit(r.Comment))
	}
	return stmt
}

// goName maps a declared snake_case name to its exported Go form.
func goName(name string) string {
	return inflect.Camelize(name)
}
