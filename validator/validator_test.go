package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplex/schemaplex/ir"
)

func issueTypes(issues []ValidationIssue) []string {
	var out []string
	for _, issue := range issues {
		out = append(out, issue.Type)
	}
	return out
}

func TestValidateCleanEntities(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "status", Type: ir.EnumOf("pending", "shipped"), Default: ir.StrPtr("pending")},
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer", Cardinality: ir.ManyToOne},
		}},
		{Name: "Customer", Fields: []ir.Field{
			{Name: "email", Type: ir.Text, Required: true, Unique: true},
		}},
	}

	result := ValidateEntities(entities)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateDuplicateEntity(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order"},
		{Name: "Order"},
	}

	result := ValidateEntities(entities)
	assert.False(t, result.Valid)
	assert.Contains(t, issueTypes(result.Errors), "duplicate_entity")
}

func TestValidateDuplicateField(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "status", Type: ir.Text},
			{Name: "status", Type: ir.Integer},
		}},
	}

	result := ValidateEntities(entities)
	assert.False(t, result.Valid)
	assert.Contains(t, issueTypes(result.Errors), "duplicate_field")
}

func TestValidateMissingReference(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.Type{Kind: ir.KindReference}},
		}},
	}

	result := ValidateEntities(entities)
	assert.False(t, result.Valid)
	assert.Contains(t, issueTypes(result.Errors), "missing_reference")
}

func TestValidateEmptyEnum(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "status", Type: ir.EnumOf()},
		}},
	}

	result := ValidateEntities(entities)
	assert.False(t, result.Valid)
	assert.Contains(t, issueTypes(result.Errors), "empty_enum")
}

func TestValidateDefaults(t *testing.T) {
	cases := []struct {
		name  string
		field ir.Field
		valid bool
	}{
		{"integer ok", ir.Field{Name: "count", Type: ir.Integer, Default: ir.StrPtr("42")}, true},
		{"integer bad", ir.Field{Name: "count", Type: ir.Integer, Default: ir.StrPtr("many")}, false},
		{"decimal ok", ir.Field{Name: "total", Type: ir.Decimal, Default: ir.StrPtr("9.99")}, true},
		{"boolean bad", ir.Field{Name: "done", Type: ir.Boolean, Default: ir.StrPtr("yes")}, false},
		{"enum member ok", ir.Field{Name: "status", Type: ir.EnumOf("a", "b"), Default: ir.StrPtr("a")}, true},
		{"enum member bad", ir.Field{Name: "status", Type: ir.EnumOf("a", "b"), Default: ir.StrPtr("c")}, false},
		{"function call passes through", ir.Field{Name: "created_at", Type: ir.DateTime, Default: ir.StrPtr("now()")}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateEntities([]ir.Entity{{Name: "Thing", Fields: []ir.Field{tc.field}}})
			assert.Equal(t, tc.valid, result.Valid)
		})
	}
}

func TestValidateNamingConventions(t *testing.T) {
	entities := []ir.Entity{
		{Name: "order_history", Fields: []ir.Field{
			{Name: "CamelField", Type: ir.Text},
			{Name: "user", Type: ir.Text},
		}},
	}

	result := ValidateEntities(entities)
	assert.True(t, result.Valid, "naming issues are never errors")
	assert.Contains(t, issueTypes(result.Warnings), "entity_name")
	assert.Contains(t, issueTypes(result.Warnings), "reserved_word")
	assert.Contains(t, issueTypes(result.Info), "field_name")
}

func TestValidateActionTargets(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order",
			Fields: []ir.Field{{Name: "status", Type: ir.Text}},
			Actions: []ir.Action{{
				Name:   "ship",
				Entity: "Order",
				Steps: []ir.Step{
					ir.UpdateStep("Ghost", ir.Assignment{Name: "x", Value: "1"}),
				},
				Impacts: []string{"Order", "Phantom"},
			}},
		},
	}

	result := ValidateEntities(entities)
	assert.True(t, result.Valid, "unknown targets warn, they do not fail the batch")
	types := issueTypes(result.Warnings)
	assert.Contains(t, types, "unknown_step_entity")
	assert.Contains(t, types, "unknown_impact")
}

func TestValidateJSONOutput(t *testing.T) {
	result := ValidateEntities([]ir.Entity{
		{Name: "Order", Fields: []ir.Field{{Name: "status", Type: ir.EnumOf()}}},
	})

	data, err := result.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"empty_enum"`)
	assert.Contains(t, string(data), `"valid": false`)
}
