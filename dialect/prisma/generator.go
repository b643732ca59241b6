package prisma

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Generator emits one schema.prisma file: enum declarations first (each
// distinct enum once, in first-use order), then model blocks in entity
// order. Field order inside a model follows IR field order exactly.
type Generator struct {
	types *typemap.Registry
}

func (g *Generator) Dialect() string { return DialectName }

// Generate renders the batch into a single Prisma schema file.
func (g *Generator) Generate(entities []ir.Entity) (map[string]string, dialect.Diagnostics, error) {
	var diags dialect.Diagnostics

	enums := newEnumSet()
	for _, ent := range entities {
		for _, f := range ent.Fields {
			if f.Type.Kind == ir.KindEnum {
				enums.nameFor(ent.Name, f.Name, f.Type.Values)
			}
		}
	}

	var b strings.Builder
	for _, decl := range enums.decls {
		fmt.Fprintf(&b, "enum %s {\n", decl.name)
		for _, v := range decl.values {
			fmt.Fprintf(&b, "  %s\n", v)
		}
		b.WriteString("}\n\n")
	}

	for i, ent := range entities {
		g.renderModel(&b, ent, enums, &diags)
		if i < len(entities)-1 {
			b.WriteString("\n")
		}
	}

	return map[string]string{"schema.prisma": b.String()}, diags, nil
}

func (g *Generator) renderModel(b *strings.Builder, ent ir.Entity, enums *enumSet, diags *dialect.Diagnostics) {
	if len(ent.Actions) > 0 {
		diags.Warnf(ent.Name, "actions are not representable in prisma; %d action(s) omitted", len(ent.Actions))
	}

	fmt.Fprintf(b, "model %s {\n", ent.Name)
	for _, f := range ent.Fields {
		g.renderField(b, ent, f, enums, diags)
	}
	if ent.Schema != "" {
		fmt.Fprintf(b, "\n  @@schema(%q)\n", ent.Schema)
	}
	if table := ent.Meta("prisma:table"); table != "" {
		fmt.Fprintf(b, "  @@map(%q)\n", table)
	}
	b.WriteString("}\n")
}

func (g *Generator) renderField(b *strings.Builder, ent ir.Entity, f ir.Field, enums *enumSet, diags *dialect.Diagnostics) {
	loc := fmt.Sprintf("%s.%s", ent.Name, f.Name)

	if f.Type.Kind == ir.KindReference {
		g.renderRelation(b, f)
		return
	}

	token, suffix := g.nativeType(ent.Name, f, enums, loc, diags)

	optional := ""
	if !f.Required && f.Type.Kind != ir.KindList {
		optional = "?"
	}
	if f.Type.Kind == ir.KindList && !f.Required {
		diags.Warnf(loc, "optional list is not representable in prisma; emitted as required")
	}

	var attrs []string
	if f.Unique {
		attrs = append(attrs, "@unique")
	}
	if f.Default != nil {
		attrs = append(attrs, fmt.Sprintf("@default(%s)", defaultLiteral(*f.Default)))
	}
	if suffix != "" {
		attrs = append(attrs, suffix)
	}

	fmt.Fprintf(b, "  %s %s%s", f.Name, token, optional)
	for _, a := range attrs {
		b.WriteString(" " + a)
	}
	b.WriteString("\n")
}

// renderRelation emits the navigation field and, for the owning side, the
// foreign-key-shaped scalar column the relation hangs off.
func (g *Generator) renderRelation(b *strings.Builder, f ir.Field) {
	switch f.Cardinality {
	case ir.OneToMany, ir.ManyToMany:
		fmt.Fprintf(b, "  %s %s[]\n", f.Name, f.ReferencedEntity)
	default:
		optional := ""
		if !f.Required {
			optional = "?"
		}
		fkColumn := f.Name + "Id"
		fmt.Fprintf(b, "  %s %s%s @relation(fields: [%s], references: [id])\n",
			f.Name, f.ReferencedEntity, optional, fkColumn)
		fmt.Fprintf(b, "  %s String%s", fkColumn, optional)
		// One-to-one is a unique FK column in prisma; the constraint lives
		// on the scalar side of the pair, as does a column default.
		if f.Unique {
			b.WriteString(" @unique")
		}
		if f.Default != nil {
			fmt.Fprintf(b, " @default(%s)", defaultLiteral(*f.Default))
		}
		b.WriteString("\n")
	}
}

// nativeType resolves the emitted token plus any @db qualifier needed to
// round-trip variants Prisma folds into wider scalars.
func (g *Generator) nativeType(entityName string, f ir.Field, enums *enumSet, loc string, diags *dialect.Diagnostics) (string, string) {
	t := f.Type
	listSuffix := ""
	if t.Kind == ir.KindList && t.Item != nil {
		t = *t.Item
		listSuffix = "[]"
	}

	switch t.Kind {
	case ir.KindEnum:
		return enums.nameFor(entityName, f.Name, t.Values) + listSuffix, ""
	case ir.KindUUID:
		return "String" + listSuffix, "@db.Uuid"
	case ir.KindDate:
		return "DateTime" + listSuffix, "@db.Date"
	}

	token, err := g.types.FromIR(DialectName, t)
	if err != nil {
		// Documented fallback: substitute String and keep generating.
		diags.Warnf(loc, "%v; substituted String", err)
		return "String" + listSuffix, ""
	}
	return token + listSuffix, ""
}

var bareDefault = regexp.MustCompile(`^(\d+(\.\d+)?|true|false|\w+\(.*\)|[A-Za-z_]\w*)$`)

// defaultLiteral quotes defaults that are not numerics, booleans, enum
// values or function calls.
func defaultLiteral(v string) string {
	if bareDefault.MatchString(v) {
		return v
	}
	return fmt.Sprintf("%q", v)
}

// enumSet assigns stable names to distinct enum value sets. The field
// name alone names the enum unless two fields with the same name carry
// different value sets, in which case the entity name disambiguates.
type enumSet struct {
	byName map[string]string // name -> signature
	bySig  map[string]string // signature -> name
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

	name := toPascalCase(fieldName)
	if existing, taken := s.byName[name]; taken && existing != sig {
		name = toPascalCase(entityName) + toPascalCase(fieldName)
	}

	s.byName[name] = sig
	s.bySig[sig] = name
	s.decls = append(s.decls, enumDecl{name: name, values: append([]string(nil), values...)})
	return name
}

func toPascalCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}
