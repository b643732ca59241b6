package specql

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Generator emits canonical entity documents, one file per entity. Output
// is built by hand rather than through a marshaller so it is byte-stable
// and fields appear exactly in IR order.
type Generator struct {
	types *typemap.Registry
}

func (g *Generator) Dialect() string { return DialectName }

// Generate renders every entity into <schema>/<entity>.yaml.
func (g *Generator) Generate(entities []ir.Entity) (map[string]string, dialect.Diagnostics, error) {
	files := map[string]string{}
	var diags dialect.Diagnostics

	for _, ent := range entities {
		name := toSnakeCase(ent.Name) + ".yaml"
		if ent.Schema != "" {
			name = path.Join(ent.Schema, name)
		}
		files[name] = g.renderEntity(ent)
	}

	return files, diags, nil
}

func (g *Generator) renderEntity(ent ir.Entity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "entity: %s\n", ent.Name)
	if ent.Schema != "" {
		fmt.Fprintf(&b, "schema: %s\n", ent.Schema)
	}

	if len(ent.Fields) > 0 {
		b.WriteString("fields:\n")
		for _, f := range ent.Fields {
			g.renderField(&b, f)
		}
	}

	if len(ent.Actions) > 0 {
		b.WriteString("actions:\n")
		for _, a := range ent.Actions {
			g.renderAction(&b, a)
		}
	}

	if len(ent.Metadata) > 0 {
		b.WriteString("metadata:\n")
		keys := make([]string, 0, len(ent.Metadata))
		for k := range ent.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, yamlScalar(ent.Metadata[k]))
		}
	}

	return b.String()
}

// renderField uses the inline expression where it can carry the whole
// field and falls back to the nested mapping for unique/default/enum or a
// non-default cardinality.
func (g *Generator) renderField(b *strings.Builder, f ir.Field) {
	inline := !f.Unique && f.Default == nil &&
		f.Type.Kind != ir.KindEnum &&
		(f.Type.Kind != ir.KindReference || f.Cardinality == ir.ManyToOne)

	if inline {
		expr := f.Type.String()
		if f.Required {
			expr += "!"
		}
		fmt.Fprintf(b, "  %s: %s\n", f.Name, expr)
		return
	}

	fmt.Fprintf(b, "  %s:\n", f.Name)
	switch f.Type.Kind {
	case ir.KindEnum:
		fmt.Fprintf(b, "    type: enum\n")
		values := make([]string, len(f.Type.Values))
		for i, v := range f.Type.Values {
			values[i] = yamlFlowScalar(v)
		}
		fmt.Fprintf(b, "    values: [%s]\n", strings.Join(values, ", "))
	case ir.KindReference:
		fmt.Fprintf(b, "    type: ref\n")
		fmt.Fprintf(b, "    references: %s\n", f.ReferencedEntity)
		fmt.Fprintf(b, "    cardinality: %s\n", f.Cardinality)
	default:
		fmt.Fprintf(b, "    type: %s\n", f.Type.String())
	}
	if f.Required {
		b.WriteString("    required: true\n")
	}
	if f.Unique {
		b.WriteString("    unique: true\n")
	}
	if f.Default != nil {
		fmt.Fprintf(b, "    default: %s\n", yamlScalar(*f.Default))
	}
}

func (g *Generator) renderAction(b *strings.Builder, a ir.Action) {
	fmt.Fprintf(b, "  - name: %s\n", a.Name)
	if len(a.Impacts) > 0 {
		fmt.Fprintf(b, "    impacts: [%s]\n", strings.Join(a.Impacts, ", "))
	}
	if len(a.Steps) > 0 {
		b.WriteString("    steps:\n")
		for _, s := range a.Steps {
			fmt.Fprintf(b, "      - %s: %s\n", s.Kind, yamlScalar(renderStepValue(s)))
		}
	}
}

func renderStepValue(s ir.Step) string {
	switch s.Kind {
	case ir.StepValidate:
		return s.Expression
	case ir.StepInsert, ir.StepUpdate:
		if len(s.Fields) == 0 {
			return s.Entity
		}
		assigns := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			assigns[i] = fmt.Sprintf("%s = %s", f.Name, f.Value)
		}
		return fmt.Sprintf("%s SET %s", s.Entity, strings.Join(assigns, ", "))
	case ir.StepDelete:
		return s.Entity
	case ir.StepNotify:
		return fmt.Sprintf("%s: %s", s.Target, s.Message)
	}
	return ""
}

// yamlScalar quotes a plain value only when YAML would misread it bare.
func yamlScalar(s string) string {
	if s == "" {
		return `""`
	}
	first, _ := utf8.DecodeRuneInString(s)
	needsQuote := strings.ContainsAny(s, "\n#") ||
		strings.Contains(s, ": ") ||
		strings.HasSuffix(s, ":") ||
		strings.ContainsRune("!&*-?{}[]|>@`\"' %", first)
	if !needsQuote {
		return s
	}
	return strconv.Quote(s)
}

// yamlFlowScalar additionally quotes anything a flow sequence would split
// or misnest.
func yamlFlowScalar(s string) string {
	if strings.ContainsAny(s, ",[]{}") {
		return strconv.Quote(s)
	}
	return yamlScalar(s)
}

func toSnakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if r >= 'A' && r <= 'Z' && prev >= 'a' && prev <= 'z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToLower(b.String())
}
