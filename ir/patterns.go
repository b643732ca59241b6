package ir

import "strings"

// MetaPatterns is the metadata key under which detected field-shape
// patterns are recorded, comma-separated.
const MetaPatterns = "patterns"

// DetectPatterns inspects an entity's field names for well-known schema
// conventions (audit trail, soft delete, state machine, multi tenant) and
// returns a copy with the findings recorded in metadata. The detection is
// purely name-shape based; adapters run it after parsing so downstream
// tooling can key off the patterns without re-scanning fields.
func DetectPatterns(e Entity) Entity {
	names := map[string]bool{}
	for _, f := range e.Fields {
		names[f.Name] = true
	}

	var patterns []string
	if names["created_at"] && names["updated_at"] && names["created_by"] && names["updated_by"] {
		patterns = append(patterns, "audit_trail")
	}
	if names["deleted_at"] {
		patterns = append(patterns, "soft_delete")
	}
	if names["status"] || names["state"] {
		patterns = append(patterns, "state_machine")
	}
	if names["tenant_id"] {
		patterns = append(patterns, "multi_tenant")
	}

	if len(patterns) == 0 {
		return e
	}
	return e.WithMetadata(MetaPatterns, strings.Join(patterns, ","))
}
