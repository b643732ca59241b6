package gostruct

import (
	"strings"
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

const modelsSource = `package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusShipped Status = "shipped"
)

// schema: sales
type Order struct {
	ID        uuid.UUID  ` + "`db:\"id;not_null;unique\"`" + `
	Status    Status     ` + "`db:\"status;not_null;default:pending\"`" + `
	Total     float64    ` + "`db:\"total;not_null\"`" + `
	PlacedOn  time.Time  ` + "`db:\"placed_on;type:date;not_null\"`" + `
	Note      *string    ` + "`db:\"note\"`" + `
	Tags      []string   ` + "`db:\"tags;not_null\"`" + `
	Customer  *Customer  ` + "`db:\"-\"`" + `
	CustomerID string    ` + "`db:\"customer;ref:Customer;not_null\"`" + `
}

type Customer struct {
	ID     uuid.UUID ` + "`db:\"id;not_null;unique\"`" + `
	Orders []Order   ` + "`db:\"orders;ref:Order;has_many\"`" + `
}

type helper struct {
	scratch int
}
`

func TestParseStructs(t *testing.T) {
	a := newAdapter(t)

	entities, diags, err := a.Parser.Parse([]byte(modelsSource), "models.go")
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
	require.Len(t, entities, 2, "untagged structs are not entities")

	order := entities[0]
	assert.Equal(t, "Order", order.Name)
	assert.Equal(t, "sales", order.Schema, "schema comes from the doc comment marker")

	id, ok := order.Field("id")
	require.True(t, ok)
	assert.Equal(t, ir.UUID, id.Type)
	assert.True(t, id.Required)
	assert.True(t, id.Unique)

	status, ok := order.Field("status")
	require.True(t, ok)
	assert.Equal(t, ir.EnumOf("pending", "shipped"), status.Type)
	require.NotNil(t, status.Default)
	assert.Equal(t, "pending", *status.Default)

	placedOn, ok := order.Field("placed_on")
	require.True(t, ok)
	assert.Equal(t, ir.Date, placedOn.Type, "type:date narrows time.Time")

	note, ok := order.Field("note")
	require.True(t, ok)
	assert.False(t, note.Required)
	assert.Equal(t, ir.Text, note.Type)

	tags, ok := order.Field("tags")
	require.True(t, ok)
	assert.Equal(t, ir.ListOf(ir.Text), tags.Type)

	customer, ok := order.Field("customer")
	require.True(t, ok)
	assert.Equal(t, ir.RefTo("Customer"), customer.Type)
	assert.Equal(t, ir.ManyToOne, customer.Cardinality)
	assert.True(t, customer.Required)

	orders, ok := entities[1].Field("orders")
	require.True(t, ok)
	assert.Equal(t, ir.OneToMany, orders.Cardinality)
}

func TestParseBrokenFileYieldsOneError(t *testing.T) {
	a := newAdapter(t)

	entities, diags, err := a.Parser.Parse([]byte("package models\n\ntype Broken struct {"), "broken.go")
	require.NoError(t, err)
	assert.Empty(t, entities)
	require.Len(t, diags.Errors(), 1)
	assert.Contains(t, diags.Errors()[0].Message, "parse error")
}

func TestGenerateJSONFallsBackToString(t *testing.T) {
	a := newAdapter(t)

	entities := []ir.Entity{{
		Name: "Event",
		Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "payload", Type: ir.JSON, Required: true},
		},
	}}

	files, diags, err := a.Generator.Generate(entities)
	require.NoError(t, err)

	assert.False(t, diags.HasErrors(), "fallback degrades, it does not abort")
	require.Len(t, diags, 1)
	assert.Equal(t, dialect.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "json")

	source := files["models.go"]
	assert.Contains(t, source, "Payload string")
}

func TestGenerateEmitsEnumConstBlock(t *testing.T) {
	a := newAdapter(t)

	entities := []ir.Entity{{
		Name: "Task",
		Fields: []ir.Field{
			{Name: "status", Type: ir.EnumOf("open", "closed"), Required: true},
		},
	}}

	files, _, err := a.Generator.Generate(entities)
	require.NoError(t, err)

	source := files["models.go"]
	assert.Contains(t, source, "type Status string")
	assert.Contains(t, source, `StatusOpen Status = "open"`)
	assert.Contains(t, source, `StatusClosed Status = "closed"`)
}

func TestGenerateImportsAreSorted(t *testing.T) {
	a := newAdapter(t)

	entities := []ir.Entity{{
		Name: "Order",
		Fields: []ir.Field{
			{Name: "id", Type: ir.UUID, Required: true, Unique: true},
			{Name: "placed_at", Type: ir.DateTime, Required: true},
		},
	}}

	files, _, err := a.Generator.Generate(entities)
	require.NoError(t, err)

	source := files["models.go"]
	timeIdx := strings.Index(source, `"time"`)
	uuidIdx := strings.Index(source, `"github.com/google/uuid"`)
	require.True(t, timeIdx > 0 && uuidIdx > 0)
	assert.Less(t, uuidIdx, timeIdx)
}

func TestRoundTrip(t *testing.T) {
	a := newAdapter(t)

	entities, diags, err := a.Parser.Parse([]byte(modelsSource), "models.go")
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, entities, 2)

	files, diags, err := a.Generator.Generate(entities)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	back, diags, err := a.Parser.Parse([]byte(files["models.go"]), "models.go")
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Len(t, back, 2)

	for i := range entities {
		assert.True(t, entities[i].Equal(back[i]), "round trip changed %s:\n%s", entities[i].Name, files["models.go"])
	}
}
