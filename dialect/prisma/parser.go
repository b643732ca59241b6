package prisma

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Parser reads Prisma schema files. datasource and generator blocks are
// skipped, a malformed (unterminated) block yields one Error diagnostic
// and parsing continues at the next top-level declaration.
type Parser struct {
	types *typemap.Registry
}

func (p *Parser) Dialect() string { return DialectName }

var (
	blockStart   = regexp.MustCompile(`^(model|enum|datasource|generator|type|view)\s+(\w+)?\s*\{?\s*$`)
	fieldLine    = regexp.MustCompile(`^(\w+)\s+([A-Za-z_]\w*)(\[\])?(\?)?\s*(.*)$`)
	relationAttr = regexp.MustCompile(`@relation\(\s*fields:\s*\[([^\]]*)\]\s*,\s*references:\s*\[([^\]]*)\]\s*\)`)
	defaultAttr  = regexp.MustCompile(`@default\(((?:[^()]|\([^()]*\))*)\)`)
	mapAttr      = regexp.MustCompile(`@@map\(\s*"([^"]*)"\s*\)`)
	schemaAttr   = regexp.MustCompile(`@@schema\(\s*"([^"]*)"\s*\)`)
)

type block struct {
	kind  string
	name  string
	lines []string
	start int
}

// Parse tokenizes source into top-level blocks, resolves enums first, then
// maps each model block onto an IR entity.
func (p *Parser) Parse(source []byte, filename string) ([]ir.Entity, dialect.Diagnostics, error) {
	var diags dialect.Diagnostics

	blocks := p.scanBlocks(string(source), filename, &diags)

	enums := map[string][]string{}
	for _, b := range blocks {
		if b.kind == "enum" {
			enums[b.name] = parseEnumValues(b.lines)
		}
	}

	var entities []ir.Entity
	for _, b := range blocks {
		if b.kind != "model" {
			continue
		}
		ent := p.parseModel(b, enums, filename, &diags)
		entities = append(entities, ir.DetectPatterns(ent))
	}

	return entities, diags, nil
}

// scanBlocks splits the source into brace-delimited top-level blocks. A
// new top-level keyword while a block is still open means the previous
// block never closed: it is reported and dropped, and scanning resumes at
// the new declaration.
func (p *Parser) scanBlocks(source, filename string, diags *dialect.Diagnostics) []block {
	var blocks []block
	var current *block
	depth := 0

	flushUnterminated := func() {
		perr := &dialect.ParseError{
			Location: fmt.Sprintf("%s:%d", filename, current.start),
			Reason:   fmt.Sprintf("unterminated %s %q", current.kind, current.name),
		}
		diags.Errorf(perr.Location, "%s", perr.Error())
		current = nil
		depth = 0
	}

	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if m := blockStart.FindStringSubmatch(line); m != nil && !strings.HasPrefix(raw, " ") && !strings.HasPrefix(raw, "\t") {
			if current != nil {
				flushUnterminated()
			}
			current = &block{kind: m[1], name: m[2], start: i + 1}
			depth = strings.Count(line, "{") - strings.Count(line, "}")
			if depth == 0 && strings.Contains(line, "{") {
				blocks = append(blocks, *current)
				current = nil
			}
			continue
		}

		if current == nil {
			continue
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			blocks = append(blocks, *current)
			current = nil
			depth = 0
			continue
		}
		current.lines = append(current.lines, line)
	}

	if current != nil {
		flushUnterminated()
	}

	return blocks
}

func parseEnumValues(lines []string) []string {
	var values []string
	for _, line := range lines {
		token := strings.Fields(line)
		if len(token) == 0 || strings.HasPrefix(token[0], "@") {
			continue
		}
		values = append(values, token[0])
	}
	return values
}

func (p *Parser) parseModel(b block, enums map[string][]string, filename string, diags *dialect.Diagnostics) ir.Entity {
	ent := ir.Entity{Name: b.name}

	// Scalar columns claimed by @relation(fields: [...]) are the physical
	// FK columns; they fold into the relation field instead of surfacing
	// as standalone IR fields. Their constraints fold with them.
	fkColumns := map[string]bool{}
	for _, line := range b.lines {
		if m := relationAttr.FindStringSubmatch(line); m != nil {
			for _, col := range strings.Split(m[1], ",") {
				fkColumns[strings.TrimSpace(col)] = true
			}
		}
	}
	fkAttrs := map[string]string{}
	for _, line := range b.lines {
		if m := fieldLine.FindStringSubmatch(line); m != nil && fkColumns[m[1]] {
			fkAttrs[m[1]] = m[5]
		}
	}

	for _, line := range b.lines {
		if strings.HasPrefix(line, "@@") {
			if m := mapAttr.FindStringSubmatch(line); m != nil {
				ent = ent.WithMetadata("prisma:table", m[1])
			}
			if m := schemaAttr.FindStringSubmatch(line); m != nil {
				ent.Schema = m[1]
			}
			continue
		}

		m := fieldLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, rawType, isList, isOptional, attrs := m[1], m[2], m[3] != "", m[4] != "", m[5]

		if fkColumns[name] {
			continue
		}

		loc := fmt.Sprintf("%s:%s.%s", filename, b.name, name)
		field := p.parseField(name, rawType, isList, isOptional, attrs, enums, loc, diags)
		if m := relationAttr.FindStringSubmatch(line); m != nil {
			hoistColumnConstraints(&field, m[1], fkAttrs)
		}
		ent.Fields = append(ent.Fields, field)
	}

	return ent
}

func (p *Parser) parseField(name, rawType string, isList, isOptional bool, attrs string, enums map[string][]string, loc string, diags *dialect.Diagnostics) ir.Field {
	field := ir.Field{Name: name, Required: !isOptional}

	switch {
	case prismaScalars[rawType]:
		field.Type = p.scalarType(rawType, attrs, loc, diags)
	case enums[rawType] != nil:
		field.Type = ir.EnumOf(enums[rawType]...)
	default:
		// Capitalized non-scalar, non-enum token: a relation to another
		// model, possibly declared in another file of the batch.
		field.Type = ir.RefTo(rawType)
		field.ReferencedEntity = rawType
		if isList {
			field.Cardinality = ir.OneToMany
			field.Required = true
			isList = false
		} else {
			field.Cardinality = ir.ManyToOne
		}
	}

	if isList {
		field.Type = ir.ListOf(field.Type)
		// Prisma lists are always non-nullable.
		field.Required = true
	}

	if strings.Contains(attrs, "@id") {
		field.Required = true
		field.Unique = true
	}
	if strings.Contains(attrs, "@unique") {
		field.Unique = true
	}
	if m := defaultAttr.FindStringSubmatch(attrs); m != nil {
		field.Default = ir.StrPtr(strings.Trim(m[1], `"`))
	}

	return field
}

// hoistColumnConstraints lifts @unique and @default off the folded FK
// columns onto the relation field. @unique on the FK column is how
// prisma writes a one-to-one relation.
func hoistColumnConstraints(field *ir.Field, cols string, fkAttrs map[string]string) {
	for _, col := range strings.Split(cols, ",") {
		attrs := fkAttrs[strings.TrimSpace(col)]
		if strings.Contains(attrs, "@unique") {
			field.Unique = true
		}
		if field.Default == nil {
			if m := defaultAttr.FindStringSubmatch(attrs); m != nil {
				field.Default = ir.StrPtr(strings.Trim(m[1], `"`))
			}
		}
	}
}

// scalarType maps a native scalar plus its @db qualifier. String @db.Uuid
// and DateTime @db.Date recover the narrower IR variants the emitter uses.
func (p *Parser) scalarType(token, attrs, loc string, diags *dialect.Diagnostics) ir.Type {
	if token == "String" && strings.Contains(attrs, "@db.Uuid") {
		return ir.UUID
	}
	if token == "DateTime" && strings.Contains(attrs, "@db.Date") {
		return ir.Date
	}

	typ, known := p.types.ToIR(DialectName, token, typemap.Modifiers{})
	if !known {
		diags.Warnf(loc, "unmapped type %q fell back to text", token)
	}
	return typ
}
