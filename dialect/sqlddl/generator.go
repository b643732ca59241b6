package sqlddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Generator emits one schema.sql per batch: CREATE TYPE declarations for
// every distinct enum, CREATE TABLE per entity in order, a COMMENT ON
// TABLE carrying the canonical entity name, and one pl/pgSQL function per
// action.
type Generator struct {
	types *typemap.Registry
}

func (g *Generator) Dialect() string { return DialectName }

// Generate renders the batch deterministically into schema.sql.
func (g *Generator) Generate(entities []ir.Entity) (map[string]string, dialect.Diagnostics, error) {
	var diags dialect.Diagnostics
	var b strings.Builder

	enums := newEnumSet()
	for _, ent := range entities {
		for _, f := range ent.Fields {
			t := f.Type
			if t.Kind == ir.KindList && t.Item != nil {
				t = *t.Item
			}
			if t.Kind == ir.KindEnum {
				enums.nameFor(ent.Name, f.Name, t.Values)
			}
		}
	}

	for _, decl := range enums.decls {
		quoted := make([]string, len(decl.values))
		for i, v := range decl.values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		fmt.Fprintf(&b, "CREATE TYPE %q AS ENUM (%s);\n\n", decl.name, strings.Join(quoted, ", "))
	}

	for _, ent := range entities {
		g.renderTable(&b, ent, enums, &diags)
	}

	for _, ent := range entities {
		for _, action := range ent.Actions {
			g.renderAction(&b, ent, action)
		}
	}

	return map[string]string{"schema.sql": strings.TrimRight(b.String(), "\n") + "\n"}, diags, nil
}

func (g *Generator) renderTable(b *strings.Builder, ent ir.Entity, enums *enumSet, diags *dialect.Diagnostics) {
	table := tableRef(ent)

	var columns []string
	for _, f := range ent.Fields {
		loc := fmt.Sprintf("%s.%s", ent.Name, f.Name)
		col, ok := g.renderColumn(ent, f, enums, loc, diags)
		if ok {
			columns = append(columns, "  "+col)
		}
	}

	fmt.Fprintf(b, "CREATE TABLE %s (\n%s\n);\n\n", table, strings.Join(columns, ",\n"))
	fmt.Fprintf(b, "COMMENT ON TABLE %s IS 'entity: %s';\n\n", table, ent.Name)
}

// renderColumn renders one column definition. One-to-many and
// many-to-many navigation fields have no physical column on this side of
// the relationship and are dropped with a warning.
func (g *Generator) renderColumn(ent ir.Entity, f ir.Field, enums *enumSet, loc string, diags *dialect.Diagnostics) (string, bool) {
	if f.Type.Kind == ir.KindReference {
		if f.Cardinality == ir.OneToMany || f.Cardinality == ir.ManyToMany {
			diags.Warnf(loc, "%s navigation has no column on this side; omitted", f.Cardinality)
			return "", false
		}
		col := fmt.Sprintf("%q uuid", f.Name+"_id")
		if f.Required {
			col += " NOT NULL"
		}
		if f.Unique {
			col += " UNIQUE"
		}
		col += fmt.Sprintf(" REFERENCES %q (%q)", toSnakeCase(f.ReferencedEntity), "id")
		return col, true
	}

	token := g.nativeType(ent.Name, f, enums, loc, diags)
	col := fmt.Sprintf("%q %s", f.Name, token)
	if f.Required {
		col += " NOT NULL"
	}
	if f.Unique {
		col += " UNIQUE"
	}
	if f.Default != nil {
		col += " DEFAULT " + defaultLiteral(*f.Default)
	}
	return col, true
}

func (g *Generator) nativeType(entityName string, f ir.Field, enums *enumSet, loc string, diags *dialect.Diagnostics) string {
	t := f.Type
	suffix := ""
	if t.Kind == ir.KindList && t.Item != nil {
		t = *t.Item
		suffix = "[]"
	}

	if t.Kind == ir.KindEnum {
		return fmt.Sprintf("%q%s", enums.nameFor(entityName, f.Name, t.Values), suffix)
	}

	token, err := g.types.FromIR(DialectName, t)
	if err != nil {
		diags.Warnf(loc, "%v; substituted text", err)
		return "text" + suffix
	}
	return token + suffix
}

// renderAction lowers an action into a pl/pgSQL function. The header
// comment carries the metadata the DDL itself cannot: the action name,
// its owning entity and the impact set.
func (g *Generator) renderAction(b *strings.Builder, ent ir.Entity, action ir.Action) {
	fmt.Fprintf(b, "-- action: %s entity: %s", action.Name, ent.Name)
	if len(action.Impacts) > 0 {
		fmt.Fprintf(b, " impacts: %s", strings.Join(action.Impacts, ", "))
	}
	b.WriteString("\n")

	fname := toSnakeCase(ent.Name) + "_" + action.Name
	fmt.Fprintf(b, "CREATE OR REPLACE FUNCTION %q() RETURNS void AS $$\nBEGIN\n", fname)
	for _, step := range action.Steps {
		b.WriteString("  " + lowerStep(step) + "\n")
	}
	b.WriteString("END;\n$$ LANGUAGE plpgsql;\n\n")
}

func lowerStep(s ir.Step) string {
	switch s.Kind {
	case ir.StepValidate:
		return fmt.Sprintf("IF NOT (%s) THEN RAISE EXCEPTION 'validation failed'; END IF;", s.Expression)
	case ir.StepInsert:
		names := make([]string, len(s.Fields))
		values := make([]string, len(s.Fields))
		for i, a := range s.Fields {
			names[i] = fmt.Sprintf("%q", a.Name)
			values[i] = a.Value
		}
		return fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s);",
			toSnakeCase(s.Entity), strings.Join(names, ", "), strings.Join(values, ", "))
	case ir.StepUpdate:
		assigns := make([]string, len(s.Fields))
		for i, a := range s.Fields {
			assigns[i] = fmt.Sprintf("%q = %s", a.Name, a.Value)
		}
		return fmt.Sprintf("UPDATE %q SET %s;", toSnakeCase(s.Entity), strings.Join(assigns, ", "))
	case ir.StepDelete:
		return fmt.Sprintf("DELETE FROM %q;", toSnakeCase(s.Entity))
	case ir.StepNotify:
		return fmt.Sprintf("PERFORM pg_notify('%s', '%s');",
			strings.ReplaceAll(s.Target, "'", "''"), strings.ReplaceAll(s.Message, "'", "''"))
	}
	return ""
}

func tableRef(ent ir.Entity) string {
	if ent.Schema != "" {
		return fmt.Sprintf("%q.%q", ent.Schema, toSnakeCase(ent.Name))
	}
	return fmt.Sprintf("%q", toSnakeCase(ent.Name))
}

var bareDefault = regexp.MustCompile(`^(\d+(\.\d+)?|true|false|\w+\(.*\))$`)

func defaultLiteral(v string) string {
	if bareDefault.MatchString(v) {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// enumSet names distinct enum value sets: snake_case field name, entity-
// prefixed on conflict.
type enumSet struct {
	byName map[string]string
	bySig  map[string]string
	decls  []enumDecl
}

type enumDecl struct {
	name   string
	values []string
}

func newEnumSet() *enumSet {
	return &enumSet{byName: map[string]string{}, bySig: map[string]string{}}
}

func (s *enumSet) nameFor(entityName, fieldName string, values []string) string {
	sig := strings.Join(values, "\x00")
	if name, ok := s.bySig[sig]; ok {
		return name
	}
	name := toSnakeCase(fieldName)
	if existing, taken := s.byName[name]; taken && existing != sig {
		name = toSnakeCase(entityName) + "_" + toSnakeCase(fieldName)
	}
	s.byName[name] = sig
	s.bySig[sig] = name
	s.decls = append(s.decls, enumDecl{name: name, values: append([]string(nil), values...)})
	return name
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
