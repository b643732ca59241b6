package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/schemaplex/schemaplex/ir"
)

// ValidationIssue represents one lint finding with details
type ValidationIssue struct {
	Type     string `json:"type"`
	Entity   string `json:"entity,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
	Info     []ValidationIssue `json:"info"`
}

// JSON renders the result for machine consumers.
func (r *ValidationResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (r *ValidationResult) add(issue ValidationIssue) {
	switch issue.Severity {
	case "error":
		r.Errors = append(r.Errors, issue)
	case "warning":
		r.Warnings = append(r.Warnings, issue)
	default:
		r.Info = append(r.Info, issue)
	}
}

var (
	pascalCaseRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	snakeCaseRe  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	// Identifiers that force quoting or break outright in at least one
	// target dialect.
	reservedWords = map[string]bool{
		"select": true, "from": true, "where": true, "table": true,
		"order": true, "group": true, "user": true, "index": true,
		"primary": true, "references": true, "constraint": true,
		"type": true, "func": true, "range": true,
	}
)

// ValidateEntities lints a batch of entities: unique entity and field
// names, well-formed relationships, non-empty enums, well-typed
// defaults, and action targets that exist in the batch. It never
// mutates its input.
func ValidateEntities(entities []ir.Entity) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
		Info:     []ValidationIssue{},
	}

	names := map[string]bool{}
	for _, ent := range entities {
		if names[ent.Name] {
			result.add(ValidationIssue{
				Type:     "duplicate_entity",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("entity %q declared more than once in this batch", ent.Name),
				Severity: "error",
			})
		}
		names[ent.Name] = true
		validateEntity(ent, result)
	}

	for _, ent := range entities {
		validateActions(ent, names, result)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateEntity(ent ir.Entity, result *ValidationResult) {
	if ent.Name == "" {
		result.add(ValidationIssue{
			Type:     "entity_name",
			Message:  "entity has no name",
			Severity: "error",
		})
		return
	}
	if !pascalCaseRe.MatchString(ent.Name) {
		result.add(ValidationIssue{
			Type:     "entity_name",
			Entity:   ent.Name,
			Message:  fmt.Sprintf("entity name %q is not PascalCase", ent.Name),
			Severity: "warning",
		})
	}

	fieldNames := map[string]bool{}
	for _, f := range ent.Fields {
		if fieldNames[f.Name] {
			result.add(ValidationIssue{
				Type:     "duplicate_field",
				Entity:   ent.Name,
				Field:    f.Name,
				Message:  fmt.Sprintf("field %q declared more than once", f.Name),
				Severity: "error",
			})
		}
		fieldNames[f.Name] = true
		validateField(ent.Name, f, result)
	}
}

func validateField(entity string, f ir.Field, result *ValidationResult) {
	if f.Name == "" {
		result.add(ValidationIssue{
			Type:     "field_name",
			Entity:   entity,
			Message:  "field has no name",
			Severity: "error",
		})
		return
	}
	if !snakeCaseRe.MatchString(f.Name) {
		result.add(ValidationIssue{
			Type:     "field_name",
			Entity:   entity,
			Field:    f.Name,
			Message:  fmt.Sprintf("field name %q is not snake_case", f.Name),
			Severity: "info",
		})
	}
	if reservedWords[strings.ToLower(f.Name)] {
		result.add(ValidationIssue{
			Type:     "reserved_word",
			Entity:   entity,
			Field:    f.Name,
			Message:  fmt.Sprintf("field name %q is a reserved word in at least one target dialect", f.Name),
			Severity: "warning",
		})
	}

	if f.Type.Kind == ir.KindReference && f.ReferencedEntity == "" {
		result.add(ValidationIssue{
			Type:     "missing_reference",
			Entity:   entity,
			Field:    f.Name,
			Message:  "relationship field has no referenced entity",
			Severity: "error",
		})
	}
	if f.Type.Kind == ir.KindEnum && len(f.Type.Values) == 0 {
		result.add(ValidationIssue{
			Type:     "empty_enum",
			Entity:   entity,
			Field:    f.Name,
			Message:  "enum field has no values",
			Severity: "error",
		})
	}
	if f.Type.Kind == ir.KindList && f.Type.Item == nil {
		result.add(ValidationIssue{
			Type:     "empty_list",
			Entity:   entity,
			Field:    f.Name,
			Message:  "list field has no item type",
			Severity: "error",
		})
	}

	if f.Default != nil {
		validateDefault(entity, f, result)
	}
}

// validateDefault checks that the declared default is well-typed for the
// field. Call-shaped defaults (now(), gen_random_uuid()) are dialect
// expressions and pass through unchecked.
func validateDefault(entity string, f ir.Field, result *ValidationResult) {
	v := *f.Default
	if strings.HasSuffix(v, ")") && strings.Contains(v, "(") {
		return
	}

	badDefault := func(expected string) {
		result.add(ValidationIssue{
			Type:     "default_type",
			Entity:   entity,
			Field:    f.Name,
			Message:  fmt.Sprintf("default %q is not a valid %s", v, expected),
			Severity: "error",
		})
	}

	switch f.Type.Kind {
	case ir.KindInteger:
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			badDefault("integer")
		}
	case ir.KindDecimal:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			badDefault("decimal")
		}
	case ir.KindBoolean:
		if v != "true" && v != "false" {
			badDefault("boolean")
		}
	case ir.KindEnum:
		for _, candidate := range f.Type.Values {
			if candidate == v {
				return
			}
		}
		badDefault(fmt.Sprintf("value of enum[%s]", strings.Join(f.Type.Values, ",")))
	case ir.KindReference, ir.KindList:
		result.add(ValidationIssue{
			Type:     "default_type",
			Entity:   entity,
			Field:    f.Name,
			Message:  fmt.Sprintf("%s fields cannot carry a default", f.Type.Kind),
			Severity: "warning",
		})
	}
}

// validateActions checks that every step and impact names an entity
// present in the batch. Unknown names are warnings rather than errors:
// an action may touch entities declared in a file outside this batch.
func validateActions(ent ir.Entity, names map[string]bool, result *ValidationResult) {
	seen := map[string]bool{}
	for _, action := range ent.Actions {
		if action.Name == "" {
			result.add(ValidationIssue{
				Type:     "action_name",
				Entity:   ent.Name,
				Message:  "action has no name",
				Severity: "error",
			})
			continue
		}
		if seen[action.Name] {
			result.add(ValidationIssue{
				Type:     "duplicate_action",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("action %q declared more than once", action.Name),
				Severity: "error",
			})
		}
		seen[action.Name] = true

		if len(action.Steps) == 0 {
			result.add(ValidationIssue{
				Type:     "empty_action",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("action %q has no steps", action.Name),
				Severity: "warning",
			})
		}
		for _, step := range action.Steps {
			if step.Entity != "" && !names[step.Entity] {
				result.add(ValidationIssue{
					Type:     "unknown_step_entity",
					Entity:   ent.Name,
					Message:  fmt.Sprintf("action %q step %s targets unknown entity %q", action.Name, step.Kind, step.Entity),
					Severity: "warning",
				})
			}
		}
		for _, impact := range action.Impacts {
			if !names[impact] {
				result.add(ValidationIssue{
					Type:     "unknown_impact",
					Entity:   ent.Name,
					Message:  fmt.Sprintf("action %q impacts unknown entity %q", action.Name, impact),
					Severity: "warning",
				})
			}
		}
	}
}
