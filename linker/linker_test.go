package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
)

func TestLinkResolvesForwardReferences(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer", Cardinality: ir.ManyToOne},
		}},
		{Name: "Customer", Fields: []ir.Field{
			{Name: "email", Type: ir.Text, Required: true},
		}},
	}

	linked, diags := Link(entities)
	assert.Empty(t, diags)
	require.Len(t, linked, 2)

	customer, ok := linked[0].Field("customer")
	require.True(t, ok)
	assert.Equal(t, ir.ManyToOne, customer.Cardinality)
}

func TestLinkDefaultsCardinalityToManyToOne(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer"},
		}},
		{Name: "Customer"},
	}

	linked, diags := Link(entities)
	assert.Empty(t, diags)

	customer, _ := linked[0].Field("customer")
	assert.Equal(t, ir.ManyToOne, customer.Cardinality)
}

func TestLinkUnresolvedReferenceWarns(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer", Cardinality: ir.ManyToOne},
		}},
	}

	linked, diags := Link(entities)
	require.Len(t, linked, 1)

	customer, ok := linked[0].Field("customer")
	require.True(t, ok, "unresolved fields are kept for downstream tooling")
	assert.Equal(t, "Customer", customer.ReferencedEntity)

	assert.False(t, diags.HasErrors())
	require.Len(t, diags, 1)
	assert.Equal(t, dialect.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "unknown entity")
}

func TestLinkMissingTargetNameErrors(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.RefTo(""), Cardinality: ir.ManyToOne},
		}},
	}

	_, diags := Link(entities)
	assert.True(t, diags.HasErrors())
}

func TestLinkUpgradesReciprocalListsToManyToMany(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Student", Fields: []ir.Field{
			{Name: "courses", Type: ir.RefTo("Course"), ReferencedEntity: "Course", Cardinality: ir.OneToMany, Required: true},
		}},
		{Name: "Course", Fields: []ir.Field{
			{Name: "students", Type: ir.RefTo("Student"), ReferencedEntity: "Student", Cardinality: ir.OneToMany, Required: true},
		}},
	}

	linked, diags := Link(entities)
	assert.Empty(t, diags)

	courses, _ := linked[0].Field("courses")
	students, _ := linked[1].Field("students")
	assert.Equal(t, ir.ManyToMany, courses.Cardinality)
	assert.Equal(t, ir.ManyToMany, students.Cardinality)
}

func TestLinkOneSidedListStaysOneToMany(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Customer", Fields: []ir.Field{
			{Name: "orders", Type: ir.RefTo("Order"), ReferencedEntity: "Order", Cardinality: ir.OneToMany, Required: true},
		}},
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer", Cardinality: ir.ManyToOne, Required: true},
		}},
	}

	linked, diags := Link(entities)
	assert.Empty(t, diags)

	orders, _ := linked[0].Field("orders")
	customer, _ := linked[1].Field("customer")
	assert.Equal(t, ir.OneToMany, orders.Cardinality)
	assert.Equal(t, ir.ManyToOne, customer.Cardinality)
}

func TestLinkDoesNotMutateInput(t *testing.T) {
	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "customer", Type: ir.RefTo("Customer"), ReferencedEntity: "Customer"},
		}},
		{Name: "Customer"},
	}

	_, _ = Link(entities)
	assert.Equal(t, ir.Cardinality(""), entities[0].Fields[0].Cardinality)
}
