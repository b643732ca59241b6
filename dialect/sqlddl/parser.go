package sqlddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Parser reads PostgreSQL DDL: enum types, tables, table comments and the
// pl/pgSQL action functions the generator emits. A malformed statement
// yields one Error diagnostic; the statements around it still parse.
type Parser struct {
	types *typemap.Registry
}

func (p *Parser) Dialect() string { return DialectName }

type statement struct {
	text    string
	comment string
	line    int
}

var (
	enumStmt    = regexp.MustCompile(`(?is)^CREATE\s+TYPE\s+"?(\w+)"?\s+AS\s+ENUM\s*\((.*)\)\s*;?$`)
	tableStmt   = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(?:"?(\w+)"?\.)?"?(\w+)"?\s*\((.*)\)\s*;?$`)
	commentStmt = regexp.MustCompile(`(?is)^COMMENT\s+ON\s+TABLE\s+(?:"?(\w+)"?\.)?"?(\w+)"?\s+IS\s+'entity:\s*(\w+)'\s*;?$`)
	funcStmt    = regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+"?(\w+)"?\s*\(\)[^$]*\$\$(.*)\$\$\s*LANGUAGE\s+plpgsql\s*;?$`)
	actionMeta  = regexp.MustCompile(`--\s*action:\s*(\w+)\s+entity:\s*(\w+)(?:\s+impacts:\s*(.*))?`)

	constraintStart = regexp.MustCompile(`(?i)\b(NOT\s+NULL|NULL|UNIQUE|PRIMARY\s+KEY|DEFAULT|REFERENCES|CHECK)\b`)
	referencesExpr  = regexp.MustCompile(`(?i)REFERENCES\s+(?:"?(\w+)"?\.)?"?(\w+)"?\s*\(\s*"?(\w+)"?\s*\)`)
	defaultExpr     = regexp.MustCompile(`(?i)DEFAULT\s+('(?:[^']|'')*'|[^ ,]+(?:\([^)]*\))?)`)

	validateLine = regexp.MustCompile(`(?i)^IF\s+NOT\s+\((.*)\)\s+THEN\s+RAISE`)
	insertLine   = regexp.MustCompile(`(?i)^INSERT\s+INTO\s+"?(\w+)"?\s*\(([^)]*)\)\s*VALUES\s*\((.*)\)\s*;?$`)
	updateLine   = regexp.MustCompile(`(?i)^UPDATE\s+"?(\w+)"?\s+SET\s+(.*?);?$`)
	deleteLine   = regexp.MustCompile(`(?i)^DELETE\s+FROM\s+"?(\w+)"?\s*;?$`)
	notifyLine   = regexp.MustCompile(`(?i)^PERFORM\s+pg_notify\('((?:[^']|'')*)',\s*'((?:[^']|'')*)'\)\s*;?$`)
)

// Parse splits the source into statements and maps them onto entities.
// Enum types and tables are collected first; comments and action
// functions attach to the tables they name.
func (p *Parser) Parse(source []byte, filename string) ([]ir.Entity, dialect.Diagnostics, error) {
	var diags dialect.Diagnostics

	statements := scanStatements(string(source), filename, &diags)

	enums := map[string][]string{}
	for _, st := range statements {
		if m := enumStmt.FindStringSubmatch(st.text); m != nil {
			enums[m[1]] = splitQuotedList(m[2])
		}
	}

	var order []string
	entities := map[string]*ir.Entity{}
	byTable := map[string]*ir.Entity{}

	for _, st := range statements {
		loc := fmt.Sprintf("%s:%d", filename, st.line)
		switch {
		case enumStmt.MatchString(st.text):
			// handled above
		case tableStmt.MatchString(st.text):
			m := tableStmt.FindStringSubmatch(st.text)
			ent := p.parseTable(m[1], m[2], m[3], enums, loc, &diags)
			entities[ent.Name] = &ent
			byTable[m[2]] = &ent
			order = append(order, ent.Name)
		case commentStmt.MatchString(st.text):
			m := commentStmt.FindStringSubmatch(st.text)
			if ent, ok := byTable[m[2]]; ok {
				renameEntity(entities, &order, ent, m[3])
			}
		case funcStmt.MatchString(st.text):
			p.parseActionFunc(st, entities, loc, &diags)
		case strings.HasPrefix(strings.ToUpper(strings.TrimSpace(st.text)), "CREATE"):
			perr := &dialect.ParseError{Location: loc, Reason: "unrecognized or malformed statement"}
			diags.Errorf(loc, "%s", perr.Error())
		default:
			// Non-entity statement (GRANT, SET, INSERT seed data...): skip.
		}
	}

	var out []ir.Entity
	for _, name := range order {
		out = append(out, ir.DetectPatterns(*entities[name]))
	}
	return out, diags, nil
}

// renameEntity applies the canonical name recorded in COMMENT ON TABLE.
func renameEntity(entities map[string]*ir.Entity, order *[]string, ent *ir.Entity, name string) {
	if ent.Name == name {
		return
	}
	for i, n := range *order {
		if n == ent.Name {
			(*order)[i] = name
		}
	}
	delete(entities, ent.Name)
	ent.Name = name
	entities[name] = ent
}

// scanStatements cuts the source into ';'-terminated statements, keeping
// $$-quoted function bodies intact. An open parenthesis left dangling when
// a new top-level CREATE begins marks the previous statement malformed.
func scanStatements(source, filename string, diags *dialect.Diagnostics) []statement {
	var statements []statement
	var current []string
	var comment string
	parenDepth := 0
	inDollar := false
	startLine := 0

	flushMalformed := func() {
		loc := fmt.Sprintf("%s:%d", filename, startLine)
		perr := &dialect.ParseError{Location: loc, Reason: "unterminated statement"}
		diags.Errorf(loc, "%s", perr.Error())
		current = nil
		parenDepth = 0
	}

	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "--") && len(current) == 0 && !inDollar {
			comment = trimmed
			continue
		}

		if len(current) == 0 {
			startLine = i + 1
		} else if !inDollar && parenDepth > 0 && strings.HasPrefix(raw, "CREATE ") {
			flushMalformed()
			startLine = i + 1
		}

		current = append(current, line)
		if strings.Count(line, "$$")%2 == 1 {
			inDollar = !inDollar
		}
		if !inDollar {
			parenDepth += countOutsideQuotes(line, '(') - countOutsideQuotes(line, ')')
		}

		if !inDollar && parenDepth <= 0 && strings.HasSuffix(trimmed, ";") {
			statements = append(statements, statement{
				text:    strings.Join(current, "\n"),
				comment: comment,
				line:    startLine,
			})
			current = nil
			comment = ""
			parenDepth = 0
		}
	}

	if len(current) > 0 {
		flushMalformed()
	}

	return statements
}

func (p *Parser) parseTable(schema, table, body string, enums map[string][]string, loc string, diags *dialect.Diagnostics) ir.Entity {
	ent := ir.Entity{Name: toPascalCase(table), Schema: schema}

	for _, col := range splitTopLevel(body, ',') {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		// Table-level constraints are not field declarations.
		upper := strings.ToUpper(col)
		if strings.HasPrefix(upper, "PRIMARY KEY") || strings.HasPrefix(upper, "UNIQUE") ||
			strings.HasPrefix(upper, "FOREIGN KEY") || strings.HasPrefix(upper, "CONSTRAINT") ||
			strings.HasPrefix(upper, "CHECK") {
			continue
		}

		field, ok := p.parseColumn(col, enums, loc, diags)
		if ok {
			ent.Fields = append(ent.Fields, field)
		}
	}

	return ent
}

func (p *Parser) parseColumn(col string, enums map[string][]string, loc string, diags *dialect.Diagnostics) (ir.Field, bool) {
	name, rest, ok := splitIdent(col)
	if !ok {
		diags.Errorf(loc, "malformed column definition %q", col)
		return ir.Field{}, false
	}

	typePart := rest
	constraints := ""
	if m := constraintStart.FindStringIndex(rest); m != nil {
		typePart = strings.TrimSpace(rest[:m[0]])
		constraints = rest[m[0]:]
	}

	field := ir.Field{Name: name}
	upper := strings.ToUpper(constraints)
	if strings.Contains(upper, "NOT NULL") {
		field.Required = true
	}
	if strings.Contains(upper, "UNIQUE") {
		field.Unique = true
	}
	if strings.Contains(upper, "PRIMARY KEY") {
		field.Required = true
		field.Unique = true
	}
	if m := defaultExpr.FindStringSubmatch(constraints); m != nil {
		field.Default = ir.StrPtr(unquoteSQL(m[1]))
	}

	if m := referencesExpr.FindStringSubmatch(constraints); m != nil {
		field.Name = strings.TrimSuffix(name, "_id")
		field.ReferencedEntity = toPascalCase(m[2])
		field.Type = ir.RefTo(field.ReferencedEntity)
		field.Cardinality = ir.ManyToOne
		return field, true
	}

	field.Type = p.columnType(typePart, enums, loc, diags)
	return field, true
}

func (p *Parser) columnType(typePart string, enums map[string][]string, loc string, diags *dialect.Diagnostics) ir.Type {
	isArray := strings.HasSuffix(typePart, "[]")
	typePart = strings.TrimSuffix(typePart, "[]")
	token := strings.Trim(typePart, `"`)
	// Length qualifiers like varchar(255) carry no IR meaning.
	if idx := strings.Index(token, "("); idx > 0 {
		token = token[:idx]
	}

	var typ ir.Type
	if values, ok := enums[token]; ok {
		typ = ir.EnumOf(values...)
	} else {
		var known bool
		typ, known = p.types.ToIR(DialectName, token, typemap.Modifiers{})
		if !known {
			diags.Warnf(loc, "unmapped type %q fell back to text", token)
		}
	}

	if isArray {
		return ir.ListOf(typ)
	}
	return typ
}

func (p *Parser) parseActionFunc(st statement, entities map[string]*ir.Entity, loc string, diags *dialect.Diagnostics) {
	meta := actionMeta.FindStringSubmatch(st.comment)
	if meta == nil {
		// A function without an action header is unrelated pl/pgSQL.
		return
	}
	name, entityName := meta[1], meta[2]

	ent, ok := entities[entityName]
	if !ok {
		diags.Warnf(loc, "action %q names unknown entity %q; skipped", name, entityName)
		return
	}

	action := ir.Action{Name: name, Entity: entityName}
	if meta[3] != "" {
		for _, imp := range strings.Split(meta[3], ",") {
			action.Impacts = append(action.Impacts, strings.TrimSpace(imp))
		}
	}

	body := funcStmt.FindStringSubmatch(st.text)[2]
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";") + ";")
		switch {
		case line == ";" || strings.EqualFold(line, "BEGIN;") || strings.EqualFold(line, "END;"):
		case validateLine.MatchString(line):
			m := validateLine.FindStringSubmatch(line)
			action.Steps = append(action.Steps, ir.ValidateStep(m[1]))
		case insertLine.MatchString(line):
			m := insertLine.FindStringSubmatch(line)
			names := splitTopLevel(m[2], ',')
			values := splitTopLevel(m[3], ',')
			var fields []ir.Assignment
			for i := range names {
				if i < len(values) {
					fields = append(fields, ir.Assignment{
						Name:  strings.Trim(strings.TrimSpace(names[i]), `"`),
						Value: strings.TrimSpace(values[i]),
					})
				}
			}
			action.Steps = append(action.Steps, ir.InsertStep(toPascalCase(m[1]), fields...))
		case updateLine.MatchString(line):
			m := updateLine.FindStringSubmatch(line)
			var fields []ir.Assignment
			for _, assign := range splitTopLevel(m[2], ',') {
				if k, v, ok := strings.Cut(assign, "="); ok {
					fields = append(fields, ir.Assignment{
						Name:  strings.Trim(strings.TrimSpace(k), `"`),
						Value: strings.TrimSpace(v),
					})
				}
			}
			action.Steps = append(action.Steps, ir.UpdateStep(toPascalCase(m[1]), fields...))
		case deleteLine.MatchString(line):
			m := deleteLine.FindStringSubmatch(line)
			action.Steps = append(action.Steps, ir.DeleteStep(toPascalCase(m[1])))
		case notifyLine.MatchString(line):
			m := notifyLine.FindStringSubmatch(line)
			action.Steps = append(action.Steps, ir.NotifyStep(
				strings.ReplaceAll(m[1], "''", "'"), strings.ReplaceAll(m[2], "''", "'")))
		}
	}

	ent.Actions = append(ent.Actions, action)
}

// splitIdent takes the leading (possibly quoted) identifier off a column
// definition.
func splitIdent(col string) (string, string, bool) {
	col = strings.TrimSpace(col)
	if strings.HasPrefix(col, `"`) {
		end := strings.Index(col[1:], `"`)
		if end < 0 {
			return "", "", false
		}
		return col[1 : end+1], strings.TrimSpace(col[end+2:]), true
	}
	idx := strings.IndexAny(col, " \t")
	if idx < 0 {
		return "", "", false
	}
	return col[:idx], strings.TrimSpace(col[idx:]), true
}

// splitTopLevel splits on sep outside parentheses and single quotes.
func splitTopLevel(s string, sep rune) []string {
	var out []string
	var buf []rune
	depth := 0
	inQuote := false

	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
			buf = append(buf, r)
		case inQuote:
			buf = append(buf, r)
		case r == '(':
			depth++
			buf = append(buf, r)
		case r == ')':
			depth--
			buf = append(buf, r)
		case r == sep && depth == 0:
			out = append(out, string(buf))
			buf = buf[:0]
		default:
			buf = append(buf, r)
		}
	}
	if len(buf) > 0 {
		out = append(out, string(buf))
	}
	return out
}

func splitQuotedList(s string) []string {
	var values []string
	for _, part := range splitTopLevel(s, ',') {
		values = append(values, unquoteSQL(strings.TrimSpace(part)))
	}
	return values
}

func unquoteSQL(s string) string {
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2 {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func countOutsideQuotes(s string, target rune) int {
	count := 0
	inQuote := false
	for _, r := range s {
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && r == target {
			count++
		}
	}
	return count
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
