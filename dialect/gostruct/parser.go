package gostruct

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Parser extracts IR entities from Go source: every exported struct with
// at least one db-tagged field becomes an entity; named string types with
// a const block become enum definitions referenced by field type.
type Parser struct {
	types *typemap.Registry
}

func (p *Parser) Dialect() string { return DialectName }

// Parse parses one Go source file. A file that does not compile yields a
// single Error diagnostic and no entities; structs without db tags are
// skipped silently.
func (p *Parser) Parse(source []byte, filename string) ([]ir.Entity, dialect.Diagnostics, error) {
	var diags dialect.Diagnostics

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, source, parser.ParseComments)
	if err != nil {
		perr := &dialect.ParseError{Location: filename, Reason: err.Error()}
		diags.Errorf(filename, "%s", perr.Error())
		return nil, diags, nil
	}

	enums := collectEnums(file)

	var entities []ir.Entity
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		structType, ok := spec.Type.(*ast.StructType)
		if !ok {
			return true
		}
		ent, ok := p.parseStruct(spec, structType, enums, filename, &diags)
		if ok {
			entities = append(entities, ir.DetectPatterns(ent))
		}
		return true
	})

	return entities, diags, nil
}

// collectEnums finds `type X string` declarations paired with a const
// block of X-typed values, preserving declaration order.
func collectEnums(file *ast.File) map[string][]string {
	stringTypes := map[string]bool{}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if ident, ok := ts.Type.(*ast.Ident); ok && ident.Name == "string" {
				stringTypes[ts.Name.Name] = true
			}
		}
	}

	enums := map[string][]string{}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || vs.Type == nil {
				continue
			}
			ident, ok := vs.Type.(*ast.Ident)
			if !ok || !stringTypes[ident.Name] {
				continue
			}
			for _, v := range vs.Values {
				lit, ok := v.(*ast.BasicLit)
				if !ok {
					continue
				}
				enums[ident.Name] = append(enums[ident.Name], strings.Trim(lit.Value, `"`))
			}
		}
	}
	return enums
}

func (p *Parser) parseStruct(spec *ast.TypeSpec, structType *ast.StructType, enums map[string][]string, filename string, diags *dialect.Diagnostics) (ir.Entity, bool) {
	ent := ir.Entity{Name: spec.Name.Name}
	if doc := spec.Doc.Text(); doc != "" {
		ent.Schema = schemaFromDoc(doc)
	}

	tagged := false
	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 || !ast.IsExported(field.Names[0].Name) {
			continue
		}
		tag := fieldTag(field)
		if tag == "" {
			continue
		}
		tagged = true
		if tag == "-" {
			continue
		}

		loc := fmt.Sprintf("%s:%s.%s", filename, ent.Name, field.Names[0].Name)
		f, ok := p.parseField(field, tag, enums, loc, diags)
		if ok {
			ent.Fields = append(ent.Fields, f)
		}
	}

	if !tagged {
		// Utility struct, not an entity declaration.
		return ir.Entity{}, false
	}
	return ent, true
}

// schemaFromDoc reads the "schema: name" marker the generator writes into
// the struct doc comment.
func schemaFromDoc(doc string) string {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "schema:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func fieldTag(field *ast.Field) string {
	if field.Tag == nil {
		return ""
	}
	raw := strings.Trim(field.Tag.Value, "`")
	return reflect.StructTag(raw).Get(tagKey)
}

func (p *Parser) parseField(field *ast.Field, tag string, enums map[string][]string, loc string, diags *dialect.Diagnostics) (ir.Field, bool) {
	parts := strings.Split(tag, ";")

	f := ir.Field{}
	refEntity := ""
	cardinality := ir.Cardinality("")
	typeOverride := ""

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, isKV := strings.Cut(part, ":"); isKV {
			switch key {
			case "column":
				f.Name = value
			case "type":
				typeOverride = value
			case "default":
				f.Default = ir.StrPtr(value)
			case "ref":
				refEntity = value
			}
			continue
		}
		switch part {
		case "not_null":
			f.Required = true
		case "unique":
			f.Unique = true
		case "has_many":
			cardinality = ir.OneToMany
		case "many2many":
			cardinality = ir.ManyToMany
		default:
			if i == 0 {
				f.Name = part
			}
			// Unknown flags are framework hints this adapter does not
			// model; ignored, not fatal.
		}
	}

	goName := field.Names[0].Name
	if f.Name == "" {
		f.Name = toSnakeCase(goName)
	}

	if refEntity != "" {
		f.Type = ir.RefTo(refEntity)
		f.ReferencedEntity = refEntity
		f.Cardinality = cardinality
		if f.Cardinality == "" {
			f.Cardinality = ir.ManyToOne
		}
		if f.Cardinality != ir.ManyToOne {
			f.Required = true
		}
		return f, true
	}

	f.Type = p.resolveType(field.Type, typeOverride, enums, loc, diags)
	return f, true
}

// resolveType maps the Go field type (plus an optional tag override like
// type:date) onto the IR union.
func (p *Parser) resolveType(expr ast.Expr, override string, enums map[string][]string, loc string, diags *dialect.Diagnostics) ir.Type {
	// Pointers only encode nullability, which the tag already carries.
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}

	if arr, ok := expr.(*ast.ArrayType); ok {
		return ir.ListOf(p.resolveType(arr.Elt, override, enums, loc, diags))
	}

	token := typeToken(expr)
	if values, ok := enums[token]; ok {
		return ir.EnumOf(values...)
	}
	if override == "date" && token == "time.Time" {
		return ir.Date
	}

	typ, known := p.types.ToIR(DialectName, token, typemap.Modifiers{})
	if !known {
		diags.Warnf(loc, "unmapped type %q fell back to text", token)
	}
	return typ
}

func typeToken(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if x, ok := t.X.(*ast.Ident); ok {
			return x.Name + "." + t.Sel.Name
		}
	}
	return ""
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
