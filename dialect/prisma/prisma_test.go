package prisma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

func newAdapter(t *testing.T) dialect.Adapter {
	t.Helper()
	tm := typemap.New()
	RegisterTypes(tm)
	tm.Seal()
	return New(tm)
}

const orderSchema = `enum OrderStatus {
  pending
  shipped
  delivered
}

model Order {
  id        String      @id @db.Uuid
  status    OrderStatus @default(pending)
  total     Float
  placedOn  DateTime    @db.Date
  note      String?
  customer  Customer    @relation(fields: [customerId], references: [id])
  customerId String
}

model Customer {
  id     String  @id @db.Uuid
  email  String  @unique
  orders Order[]
}
`

func TestParseModels(t *testing.T) {
	a := newAdapter(t)

	entities, diags, err := a.Parser.Parse([]byte(orderSchema), "schema.prisma")
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
	require.Len(t, entities, 2)

	order := entities[0]
	assert.Equal(t, "Order", order.Name)

	id, ok := order.Field("id")
	require.True(t, ok)
	assert.Equal(t, ir.UUID, id.Type, "@db.Uuid recovers the uuid variant")
	assert.True(t, id.Required)
	assert.True(t, id.Unique)

	status, ok := order.Field("status")
	require.True(t, ok)
	assert.Equal(t, ir.EnumOf("pending", "shipped", "delivered"), status.Type)
	require.NotNil(t, status.Default)
	assert.Equal(t, "pending", *status.Default)

	placedOn, ok := order.Field("placedOn")
	require.True(t, ok)
	assert.Equal(t, ir.Date, placedOn.Type, "@db.Date recovers the date variant")

	note, ok := order.Field("note")
	require.True(t, ok)
	assert.False(t, note.Required)

	customer, ok := order.Field("customer")
	require.True(t, ok)
	assert.Equal(t, "Customer", customer.ReferencedEntity)
	assert.Equal(t, ir.ManyToOne, customer.Cardinality)

	_, ok = order.Field("customerId")
	assert.False(t, ok, "FK column folds into the relation field")

	orders, ok := entities[1].Field("orders")
	require.True(t, ok)
	assert.Equal(t, ir.OneToMany, orders.Cardinality)
	assert.Equal(t, "Order", orders.ReferencedEntity)
}

func TestParseUnterminatedBlockRecovery(t *testing.T) {
	a := newAdapter(t)

	source := `model Broken {
  id String @id

model Next {
  id String @id
}
`
	entities, diags, err := a.Parser.Parse([]byte(source), "schema.prisma")
	require.NoError(t, err)

	require.Len(t, entities, 1, "scanning resumes at the next top-level declaration")
	assert.Equal(t, "Next", entities[0].Name)
	require.Len(t, diags.Errors(), 1)
	assert.Contains(t, diags.Errors()[0].Message, "Broken")
}

func TestParseSkipsConfigBlocks(t *testing.T) {
	a := newAdapter(t)

	source := `datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider = "prisma-client-js"
}

model Tag {
  id   String @id @db.Uuid
  name String
}
`
	entities, diags, err := a.Parser.Parse([]byte(source), "schema.prisma")
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
	require.Len(t, entities, 1)
	assert.Equal(t, "Tag", entities[0].Name)
}

func TestGenerateSharesEnumDeclarations(t *testing.T) {
	a := newAdapter(t)

	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "status", Type: ir.EnumOf("pending", "done"), Required: true},
		}},
		{Name: "Task", Fields: []ir.Field{
			{Name: "status", Type: ir.EnumOf("pending", "done"), Required: true},
		}},
	}

	files, diags, err := a.Generator.Generate(entities)
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())

	schema := files["schema.prisma"]
	assert.Equal(t, 1, countOccurrences(schema, "enum Status {"), "identical value sets share one declaration")
}

func TestGenerateDisambiguatesEnumNames(t *testing.T) {
	a := newAdapter(t)

	entities := []ir.Entity{
		{Name: "Order", Fields: []ir.Field{
			{Name: "status", Type: ir.EnumOf("pending", "done"), Required: true},
		}},
		{Name: "Task", Fields: []ir.Field{
			{Name: "status", Type: ir.EnumOf("open", "closed"), Required: true},
		}},
	}

	files, _, err := a.Generator.Generate(entities)
	require.NoError(t, err)

	schema := files["schema.prisma"]
	assert.Contains(t, schema, "enum Status {")
	assert.Contains(t, schema, "enum TaskStatus {")
}

func TestGenerateWarnsOnActions(t *testing.T) {
	a := newAdapter(t)

	entities := []ir.Entity{{
		Name:   "Order",
		Fields: []ir.Field{{Name: "id", Type: ir.UUID, Required: true, Unique: true}},
		Actions: []ir.Action{
			{Name: "ship", Entity: "Order", Steps: []ir.Step{ir.ValidateStep("true")}},
		},
	}}

	_, diags, err := a.Generator.Generate(entities)
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
	require.Len(t, diags, 1)
	assert.Equal(t, dialect.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "actions")
}

func TestRoundTrip(t *testing.T) {
	a := newAdapter(t)

	entities, diags, err := a.Parser.Parse([]byte(orderSchema), "schema.prisma")
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, entities, 2)

	files, diags, err := a.Generator.Generate(entities)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	back, diags, err := a.Parser.Parse([]byte(files["schema.prisma"]), "schema.prisma")
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, back, 2)

	for i := range entities {
		assert.True(t, entities[i].Equal(back[i]), "round trip changed %s:\n%s", entities[i].Name, files["schema.prisma"])
	}
}

func TestRoundTripOneToOneUnique(t *testing.T) {
	a := newAdapter(t)

	entity := ir.Entity{Name: "Profile", Fields: []ir.Field{
		{Name: "id", Type: ir.UUID, Required: true, Unique: true},
		{Name: "user", Type: ir.RefTo("User"), ReferencedEntity: "User", Cardinality: ir.ManyToOne, Required: true, Unique: true},
		{Name: "org", Type: ir.RefTo("Org"), ReferencedEntity: "Org", Cardinality: ir.ManyToOne, Default: ir.StrPtr("root")},
	}}

	files, diags, err := a.Generator.Generate([]ir.Entity{entity})
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	assert.Contains(t, files["schema.prisma"], "userId String @unique")
	assert.Contains(t, files["schema.prisma"], "orgId String? @default(root)")

	back, diags, err := a.Parser.Parse([]byte(files["schema.prisma"]), "schema.prisma")
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, back, 1)

	user, ok := back[0].Field("user")
	require.True(t, ok)
	assert.True(t, user.Unique, "unique on the reference field survives the fold")
	assert.Equal(t, ir.ManyToOne, user.Cardinality)

	org, ok := back[0].Field("org")
	require.True(t, ok)
	require.NotNil(t, org.Default)
	assert.Equal(t, "root", *org.Default)

	assert.True(t, entity.Equal(back[0]), "round trip changed Profile:\n%s", files["schema.prisma"])
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
