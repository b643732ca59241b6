package specql

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// Parser reads canonical entity documents. One file may hold several
// entities separated by "---"; a malformed document yields one Error
// diagnostic and the remaining documents still parse.
type Parser struct {
	types *typemap.Registry
}

func (p *Parser) Dialect() string { return DialectName }

var (
	refExpr  = regexp.MustCompile(`^ref\(([A-Za-z0-9_.]+)\)$`)
	listExpr = regexp.MustCompile(`^list\((.+)\)$`)
	enumExpr = regexp.MustCompile(`^enum\[(.*)\]$`)
)

// Parse decodes every YAML document in source. Documents that are not
// entity declarations (no "entity" key) produce nothing and no error.
func (p *Parser) Parse(source []byte, filename string) ([]ir.Entity, dialect.Diagnostics, error) {
	var entities []ir.Entity
	var diags dialect.Diagnostics

	for i, doc := range splitDocuments(string(source)) {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		loc := fmt.Sprintf("%s#%d", filename, i+1)

		var root yaml.Node
		if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
			perr := &dialect.ParseError{Location: loc, Reason: err.Error()}
			diags.Errorf(loc, "%s", perr.Error())
			continue
		}
		if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
			continue
		}

		ent, ok := p.parseEntity(root.Content[0], loc, &diags)
		if !ok {
			continue
		}
		entities = append(entities, ir.DetectPatterns(ent))
	}

	return entities, diags, nil
}

// splitDocuments cuts a multi-document YAML stream on bare "---" lines so
// one syntactically broken document cannot abort its neighbours.
func splitDocuments(source string) []string {
	var docs []string
	var current []string
	for _, line := range strings.Split(source, "\n") {
		if strings.TrimRight(line, " \t") == "---" {
			docs = append(docs, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}
	docs = append(docs, strings.Join(current, "\n"))
	return docs
}

func (p *Parser) parseEntity(node *yaml.Node, loc string, diags *dialect.Diagnostics) (ir.Entity, bool) {
	ent := ir.Entity{}
	var fieldsNode, actionsNode, metaNode *yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		switch key {
		case "entity":
			ent.Name = value.Value
		case "schema":
			ent.Schema = value.Value
		case "fields":
			fieldsNode = value
		case "actions":
			actionsNode = value
		case "metadata":
			metaNode = value
		}
	}

	if ent.Name == "" {
		// Not an entity declaration; skip without complaint.
		return ir.Entity{}, false
	}

	if fieldsNode != nil && fieldsNode.Kind == yaml.MappingNode {
		seen := map[string]bool{}
		for i := 0; i+1 < len(fieldsNode.Content); i += 2 {
			name := fieldsNode.Content[i].Value
			fieldLoc := fmt.Sprintf("%s:%s.%s", loc, ent.Name, name)
			if seen[name] {
				diags.Warnf(fieldLoc, "duplicate field %q ignored", name)
				continue
			}
			field, ok := p.parseField(name, fieldsNode.Content[i+1], fieldLoc, diags)
			if !ok {
				continue
			}
			seen[name] = true
			ent.Fields = append(ent.Fields, field)
		}
	}

	if actionsNode != nil && actionsNode.Kind == yaml.SequenceNode {
		for _, actionNode := range actionsNode.Content {
			action, ok := p.parseAction(actionNode, ent.Name, loc, diags)
			if ok {
				ent.Actions = append(ent.Actions, action)
			}
		}
	}

	if metaNode != nil && metaNode.Kind == yaml.MappingNode {
		ent.Metadata = map[string]string{}
		for i := 0; i+1 < len(metaNode.Content); i += 2 {
			ent.Metadata[metaNode.Content[i].Value] = metaNode.Content[i+1].Value
		}
	}

	return ent, true
}

func (p *Parser) parseField(name string, node *yaml.Node, loc string, diags *dialect.Diagnostics) (ir.Field, bool) {
	switch node.Kind {
	case yaml.ScalarNode:
		return p.parseInlineField(name, node.Value, loc, diags)
	case yaml.MappingNode:
		return p.parseMappingField(name, node, loc, diags)
	default:
		diags.Errorf(loc, "field %q: expected type expression or mapping", name)
		return ir.Field{}, false
	}
}

// parseInlineField handles the short form: "text!", "ref(Category)!",
// "list(integer)", "enum[a,b]".
func (p *Parser) parseInlineField(name, expr, loc string, diags *dialect.Diagnostics) (ir.Field, bool) {
	required := strings.HasSuffix(expr, "!")
	expr = strings.TrimSuffix(expr, "!")

	typ := p.parseTypeExpr(expr, loc, diags)
	field := ir.Field{Name: name, Type: typ, Required: required}
	if typ.Kind == ir.KindReference {
		field.ReferencedEntity = typ.Entity
		field.Cardinality = ir.ManyToOne
	}
	return field, true
}

func (p *Parser) parseMappingField(name string, node *yaml.Node, loc string, diags *dialect.Diagnostics) (ir.Field, bool) {
	field := ir.Field{Name: name}
	var typeExpr string
	var enumValues []string

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		switch key {
		case "type":
			typeExpr = value.Value
		case "required":
			field.Required = value.Value == "true"
		case "unique":
			field.Unique = value.Value == "true"
		case "default":
			field.Default = ir.StrPtr(value.Value)
		case "values":
			for _, v := range value.Content {
				enumValues = append(enumValues, v.Value)
			}
		case "references":
			field.ReferencedEntity = value.Value
		case "cardinality":
			field.Cardinality = ir.Cardinality(value.Value)
		}
	}

	if typeExpr == "" {
		diags.Errorf(loc, "field %q has no type", name)
		return ir.Field{}, false
	}

	if typeExpr == "enum" {
		field.Type = ir.EnumOf(enumValues...)
	} else if typeExpr == "ref" && field.ReferencedEntity != "" {
		field.Type = ir.RefTo(field.ReferencedEntity)
	} else {
		field.Type = p.parseTypeExpr(typeExpr, loc, diags)
	}

	if field.Type.Kind == ir.KindReference {
		if field.ReferencedEntity == "" {
			field.ReferencedEntity = field.Type.Entity
		}
		if field.Cardinality == "" {
			field.Cardinality = ir.ManyToOne
		}
	} else {
		field.ReferencedEntity = ""
		field.Cardinality = ""
	}

	return field, true
}

// parseTypeExpr maps one inline type expression to an IR type. Unknown
// tokens degrade to text with a warning so parsing stays total.
func (p *Parser) parseTypeExpr(expr, loc string, diags *dialect.Diagnostics) ir.Type {
	expr = strings.TrimSpace(expr)

	if m := refExpr.FindStringSubmatch(expr); m != nil {
		return ir.RefTo(m[1])
	}
	if m := listExpr.FindStringSubmatch(expr); m != nil {
		return ir.ListOf(p.parseTypeExpr(m[1], loc, diags))
	}
	if m := enumExpr.FindStringSubmatch(expr); m != nil {
		var values []string
		for _, v := range strings.Split(m[1], ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		return ir.EnumOf(values...)
	}

	typ, known := p.types.ToIR(DialectName, expr, typemap.Modifiers{})
	if !known {
		diags.Warnf(loc, "unmapped type %q fell back to text", expr)
	}
	return typ
}

func (p *Parser) parseAction(node *yaml.Node, entityName, loc string, diags *dialect.Diagnostics) (ir.Action, bool) {
	if node.Kind != yaml.MappingNode {
		diags.Errorf(loc, "action: expected mapping")
		return ir.Action{}, false
	}

	action := ir.Action{Entity: entityName}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		switch key {
		case "name":
			action.Name = value.Value
		case "impacts":
			for _, v := range value.Content {
				action.Impacts = append(action.Impacts, v.Value)
			}
		case "steps":
			for _, stepNode := range value.Content {
				step, ok := p.parseStep(stepNode, loc, diags)
				if ok {
					action.Steps = append(action.Steps, step)
				}
			}
		}
	}

	if action.Name == "" {
		diags.Errorf(loc, "action has no name")
		return ir.Action{}, false
	}
	return action, true
}

// parseStep decodes one single-key step mapping, e.g.
// {update: "Order SET status = 'shipped'"} or {notify: "ops: shipped"}.
func (p *Parser) parseStep(node *yaml.Node, loc string, diags *dialect.Diagnostics) (ir.Step, bool) {
	if node.Kind != yaml.MappingNode || len(node.Content) < 2 {
		diags.Errorf(loc, "step: expected single-key mapping")
		return ir.Step{}, false
	}
	kind := node.Content[0].Value
	value := node.Content[1].Value

	switch ir.StepKind(kind) {
	case ir.StepValidate:
		return ir.ValidateStep(value), true
	case ir.StepInsert, ir.StepUpdate:
		entity, fields, err := parseSetClause(value)
		if err != nil {
			diags.Errorf(loc, "step %s: %v", kind, err)
			return ir.Step{}, false
		}
		if ir.StepKind(kind) == ir.StepInsert {
			return ir.InsertStep(entity, fields...), true
		}
		return ir.UpdateStep(entity, fields...), true
	case ir.StepDelete:
		return ir.DeleteStep(strings.TrimSpace(value)), true
	case ir.StepNotify:
		target, message := value, ""
		if idx := strings.Index(value, ":"); idx >= 0 {
			target = strings.TrimSpace(value[:idx])
			message = strings.TrimSpace(value[idx+1:])
		}
		return ir.NotifyStep(target, message), true
	default:
		diags.Warnf(loc, "unknown step kind %q skipped", kind)
		return ir.Step{}, false
	}
}

// parseSetClause parses "Entity SET a = 'x', b = 2" into the entity name
// and its ordered assignments.
func parseSetClause(clause string) (string, []ir.Assignment, error) {
	parts := strings.SplitN(clause, " SET ", 2)
	entity := strings.TrimSpace(parts[0])
	if entity == "" {
		return "", nil, fmt.Errorf("missing entity in %q", clause)
	}
	if len(parts) == 1 {
		return entity, nil, nil
	}

	var fields []ir.Assignment
	for _, assign := range splitOutsideQuotes(parts[1], ',') {
		kv := strings.SplitN(assign, "=", 2)
		if len(kv) != 2 {
			return "", nil, fmt.Errorf("malformed assignment %q", assign)
		}
		fields = append(fields, ir.Assignment{
			Name:  strings.TrimSpace(kv[0]),
			Value: strings.TrimSpace(kv[1]),
		})
	}
	return entity, fields, nil
}

// splitOutsideQuotes splits on sep, ignoring separators inside single or
// double quotes.
func splitOutsideQuotes(s string, sep rune) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false

	for _, r := range s {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			buf = append(buf, r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			buf = append(buf, r)
		case r == sep && !inSingle && !inDouble:
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
