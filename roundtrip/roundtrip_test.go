package roundtrip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/dialects"
	"github.com/schemaplex/schemaplex/ir"
)

func defaultRegistry(t *testing.T) *dialect.Registry {
	t.Helper()
	reg, _, err := dialects.Default()
	require.NoError(t, err)
	return reg
}

func sampleEntity() ir.Entity {
	return ir.Entity{
		Name: "Order",
		Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "status", Type: ir.EnumOf("pending", "shipped"), Required: true, Default: ir.StrPtr("pending")},
			{Name: "total", Type: ir.Decimal, Required: true},
			{Name: "note", Type: ir.Text},
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer", Cardinality: ir.ManyToOne, Required: true},
		},
	}
}

func TestValidateCleanAcrossDialects(t *testing.T) {
	reg := defaultRegistry(t)
	entity := sampleEntity()

	for _, name := range []string{"specql", "prisma", "gostruct", "sqlddl"} {
		adapter, ok := reg.Lookup(name)
		require.True(t, ok)

		report, err := Validate(entity, adapter.Parser, adapter.Generator)
		require.NoError(t, err, name)
		assert.True(t, report.Clean(), "%s: %s", name, report.Detail())
		assert.Equal(t, name, report.Dialect)
		assert.Equal(t, "Order", report.Entity)
		assert.NotEmpty(t, report.ID)
	}
}

func TestValidatePreservesCardinality(t *testing.T) {
	reg := defaultRegistry(t)

	entity := ir.Entity{
		Name: "Customer",
		Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "orders", Type: ir.RefTo("Order"), ReferencedEntity: "Order", Cardinality: ir.OneToMany, Required: true},
		},
	}

	for _, name := range []string{"specql", "prisma", "gostruct"} {
		adapter, ok := reg.Lookup(name)
		require.True(t, ok)

		report, err := Validate(entity, adapter.Parser, adapter.Generator)
		require.NoError(t, err, name)
		assert.True(t, report.Clean(), "%s: %s", name, report.Detail())
	}
}

func TestValidateActionsThroughSQL(t *testing.T) {
	reg := defaultRegistry(t)
	adapter, ok := reg.Lookup("sqlddl")
	require.True(t, ok)

	entity := ir.Entity{
		Name: "Order",
		Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "status", Type: ir.EnumOf("pending", "shipped"), Required: true},
		},
		Actions: []ir.Action{{
			Name:   "ship",
			Entity: "Order",
			Steps: []ir.Step{
				ir.ValidateStep("status = 'pending'"),
				ir.UpdateStep("Order", ir.Assignment{Name: "status", Value: "'shipped'"}),
				ir.NotifyStep("ops", "shipped"),
			},
			Impacts: []string{"Order"},
		}},
	}

	report, err := Validate(entity, adapter.Parser, adapter.Generator)
	require.NoError(t, err)
	assert.True(t, report.Clean(), report.Detail())
}

type dropFieldGenerator struct {
	inner dialect.Generator
}

func (g *dropFieldGenerator) Dialect() string { return g.inner.Dialect() }

func (g *dropFieldGenerator) Generate(entities []ir.Entity) (map[string]string, dialect.Diagnostics, error) {
	trimmed := make([]ir.Entity, len(entities))
	for i, ent := range entities {
		c := ent.Clone()
		if len(c.Fields) > 1 {
			c.Fields = c.Fields[:len(c.Fields)-1]
		}
		trimmed[i] = c
	}
	return g.inner.Generate(trimmed)
}

func TestValidateEnumeratesMismatches(t *testing.T) {
	reg := defaultRegistry(t)
	adapter, ok := reg.Lookup("specql")
	require.True(t, ok)

	entity := sampleEntity()
	report, err := Validate(entity, adapter.Parser, &dropFieldGenerator{inner: adapter.Generator})
	require.NoError(t, err)

	require.False(t, report.Clean())
	types := map[MismatchType]bool{}
	for _, m := range report.Mismatches {
		types[m.Type] = true
	}
	assert.True(t, types[FieldCount], "field count difference is reported")
	assert.True(t, types[FieldMissing], "the dropped field is named")
}

func TestValidateReportsMissingEntity(t *testing.T) {
	reg := defaultRegistry(t)
	adapter, ok := reg.Lookup("specql")
	require.True(t, ok)

	// gostruct parses nothing out of YAML text, so the entity never comes back.
	gostructAdapter, ok := reg.Lookup("gostruct")
	require.True(t, ok)

	report, err := Validate(sampleEntity(), gostructAdapter.Parser, adapter.Generator)
	require.NoError(t, err)

	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, EntityMissing, report.Mismatches[0].Type)
}

func TestReportJSON(t *testing.T) {
	report := &Report{
		ID:      "01J0TESTULID",
		Dialect: "specql",
		Entity:  "Order",
		Mismatches: []Mismatch{{
			Type:     TypeMismatch,
			Entity:   "Order",
			Field:    "total",
			Expected: "decimal",
			Actual:   "integer",
		}},
	}

	data, err := report.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type_mismatch"`)
	assert.Contains(t, string(data), `"total"`)

	assert.Contains(t, report.Summary(), "1 mismatch(es)")
	assert.Contains(t, report.Detail(), "expected decimal, got integer")
}

func TestValidateBatchPreservesManyToMany(t *testing.T) {
	reg := defaultRegistry(t)

	entities := []ir.Entity{
		{Name: "Student", Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "courses", Type: ir.RefTo("Course"), ReferencedEntity: "Course", Cardinality: ir.ManyToMany, Required: true},
		}},
		{Name: "Course", Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "students", Type: ir.RefTo("Student"), ReferencedEntity: "Student", Cardinality: ir.ManyToMany, Required: true},
		}},
	}

	// The reciprocal upgrade only fires when both sides travel through
	// the same batch, so the pair must be validated together.
	for _, name := range []string{"specql", "prisma"} {
		adapter, ok := reg.Lookup(name)
		require.True(t, ok)

		reports, err := ValidateBatch(entities, adapter.Parser, adapter.Generator)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		for _, report := range reports {
			assert.True(t, report.Clean(), "%s %s: %s", name, report.Entity, report.Detail())
		}
	}
}

func TestValidateBatchReturnsOneReportPerEntity(t *testing.T) {
	reg := defaultRegistry(t)
	adapter, ok := reg.Lookup("specql")
	require.True(t, ok)

	entities := []ir.Entity{
		sampleEntity(),
		{Name: "Tag", Fields: []ir.Field{{Name: "label", Type: ir.Text, Required: true}}},
	}

	reports, err := ValidateBatch(entities, adapter.Parser, adapter.Generator)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Order", reports[0].Entity)
	assert.Equal(t, "Tag", reports[1].Entity)
}
