package gostruct

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Generator emits one models.go per batch: enum type declarations first,
// then one struct per entity with db tags. Output goes through
// text/template and is byte-stable for identical input.
type Generator struct {
	types *typemap.Registry
}

func (g *Generator) Dialect() string { return DialectName }

var structTemplate = template.Must(template.New("models").Funcs(template.FuncMap{
	"pascal": toPascalCase,
}).Parse(`// Code generated by schemaplex. DO NOT EDIT.
package models
{{if .Imports}}
import (
{{- range .Imports}}
	{{.}}
{{- end}}
)
{{end}}
{{- range .Enums}}
type {{.Name}} string

const (
{{- $enum := .Name}}
{{- range .Values}}
	{{$enum}}{{pascal .}} {{$enum}} = "{{.}}"
{{- end}}
)

{{end}}
{{- range .Structs}}
{{- if .Schema}}
// schema: {{.Schema}}
{{- end}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}} ` + "`" + `db:"{{.Tag}}"` + "`" + `
{{- end}}
}

{{end}}`))

type fileData struct {
	Imports []string
	Enums   []enumData
	Structs []structData
}

type enumData struct {
	Name   string
	Values []string
}

type structData struct {
	Name   string
	Schema string
	Fields []fieldData
}

type fieldData struct {
	GoName string
	GoType string
	Tag    string
}

// Generate renders the batch into models.go.
func (g *Generator) Generate(entities []ir.Entity) (map[string]string, dialect.Diagnostics, error) {
	var diags dialect.Diagnostics

	enums := newEnumSet()
	data := fileData{}
	imports := map[string]bool{}

	for _, ent := range entities {
		for _, f := range ent.Fields {
			if baseKind(f.Type) == ir.KindEnum {
				enums.nameFor(ent.Name, f.Name, baseType(f.Type).Values)
			}
		}
	}
	for _, decl := range enums.decls {
		data.Enums = append(data.Enums, enumData{Name: decl.name, Values: decl.values})
	}

	for _, ent := range entities {
		if len(ent.Actions) > 0 {
			diags.Warnf(ent.Name, "actions are not representable in gostruct; %d action(s) omitted", len(ent.Actions))
		}

		sd := structData{Name: ent.Name, Schema: ent.Schema}
		for _, f := range ent.Fields {
			loc := fmt.Sprintf("%s.%s", ent.Name, f.Name)
			for _, fd := range g.renderField(ent, f, enums, imports, loc, &diags) {
				sd.Fields = append(sd.Fields, fd)
			}
		}
		data.Structs = append(data.Structs, sd)
	}

	for imp := range imports {
		data.Imports = append(data.Imports, imp)
	}
	sort.Strings(data.Imports)

	var b strings.Builder
	if err := structTemplate.Execute(&b, data); err != nil {
		return nil, diags, fmt.Errorf("rendering models template: %v", err)
	}

	return map[string]string{"models.go": strings.TrimRight(b.String(), "\n") + "\n"}, diags, nil
}

// renderField produces one struct field per IR field, plus the navigation
// field for owning-side relations.
func (g *Generator) renderField(ent ir.Entity, f ir.Field, enums *enumSet, imports map[string]bool, loc string, diags *dialect.Diagnostics) []fieldData {
	if f.Type.Kind == ir.KindReference {
		switch f.Cardinality {
		case ir.OneToMany, ir.ManyToMany:
			flag := "has_many"
			if f.Cardinality == ir.ManyToMany {
				flag = "many2many"
			}
			return []fieldData{{
				GoName: toPascalCase(f.Name),
				GoType: "[]" + f.ReferencedEntity,
				Tag:    fmt.Sprintf("%s;ref:%s;%s", f.Name, f.ReferencedEntity, flag),
			}}
		default:
			tag := fmt.Sprintf("%s;ref:%s", f.Name, f.ReferencedEntity)
			if f.Required {
				tag += ";not_null"
			}
			if f.Unique {
				tag += ";unique"
			}
			nav := fieldData{GoName: toPascalCase(f.Name), GoType: "*" + f.ReferencedEntity, Tag: "-"}
			fk := fieldData{GoName: toPascalCase(f.Name) + "ID", GoType: "string", Tag: tag}
			return []fieldData{nav, fk}
		}
	}

	goType, typeQualifier := g.goType(ent.Name, f, enums, imports, loc, diags)
	if !f.Required && !strings.HasPrefix(goType, "[]") {
		goType = "*" + goType
	}

	tag := f.Name
	if typeQualifier != "" {
		tag += ";type:" + typeQualifier
	}
	if f.Required {
		tag += ";not_null"
	}
	if f.Unique {
		tag += ";unique"
	}
	if f.Default != nil {
		tag += ";default:" + *f.Default
	}

	return []fieldData{{GoName: toPascalCase(f.Name), GoType: goType, Tag: tag}}
}

func (g *Generator) goType(entityName string, f ir.Field, enums *enumSet, imports map[string]bool, loc string, diags *dialect.Diagnostics) (string, string) {
	t := f.Type
	prefix := ""
	if t.Kind == ir.KindList && t.Item != nil {
		t = *t.Item
		prefix = "[]"
	}

	switch t.Kind {
	case ir.KindEnum:
		return prefix + enums.nameFor(entityName, f.Name, t.Values), ""
	case ir.KindDate:
		imports[`"time"`] = true
		return prefix + "time.Time", "date"
	case ir.KindDateTime:
		imports[`"time"`] = true
		return prefix + "time.Time", ""
	case ir.KindUUID:
		imports[`"github.com/google/uuid"`] = true
		return prefix + "uuid.UUID", ""
	}

	token, err := g.types.FromIR(DialectName, t)
	if err != nil {
		// Documented fallback: substitute string and keep generating.
		diags.Warnf(loc, "%v; substituted string", err)
		return prefix + "string", ""
	}
	return prefix + token, ""
}

// enumSet mirrors the prisma naming scheme: the field name names the
// enum type unless a same-named field carries different values.
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
	name := toPascalCase(fieldName)
	if existing, taken := s.byName[name]; taken && existing != sig {
		name = toPascalCase(entityName) + toPascalCase(fieldName)
	}
	s.byName[name] = sig
	s.bySig[sig] = name
	s.decls = append(s.decls, enumDecl{name: name, values: append([]string(nil), values...)})
	return name
}

func baseKind(t ir.Type) ir.Kind {
	return baseType(t).Kind
}

func baseType(t ir.Type) ir.Type {
	if t.Kind == ir.KindList && t.Item != nil {
		return *t.Item
	}
	return t
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
