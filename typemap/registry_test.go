package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplex/schemaplex/ir"
)

func testRegistry() *Registry {
	tm := New()
	tm.Bind("toy", "string", ir.KindText)
	tm.Bind("toy", "number", ir.KindInteger)
	tm.Bind("toy", "enum", ir.KindEnum)
	tm.Alias("toy", "str", ir.KindText)
	tm.BindOut("toy", ir.KindDate, "string")
	return tm
}

func TestToIRIsTotal(t *testing.T) {
	tm := testRegistry()

	typ, known := tm.ToIR("toy", "number", Modifiers{})
	assert.True(t, known)
	assert.Equal(t, ir.Integer, typ)

	typ, known = tm.ToIR("toy", "something_else", Modifiers{})
	assert.False(t, known)
	assert.Equal(t, ir.Text, typ, "unknown tokens degrade to text")

	typ, known = tm.ToIR("no_such_dialect", "string", Modifiers{})
	assert.False(t, known)
	assert.Equal(t, ir.Text, typ)
}

func TestToIRNormalizesTokens(t *testing.T) {
	tm := testRegistry()

	typ, known := tm.ToIR("toy", "  NUMBER ", Modifiers{})
	assert.True(t, known)
	assert.Equal(t, ir.Integer, typ)
}

func TestToIRCarriesEnumValues(t *testing.T) {
	tm := testRegistry()

	typ, known := tm.ToIR("toy", "enum", Modifiers{EnumValues: []string{"a", "b"}})
	assert.True(t, known)
	assert.Equal(t, ir.EnumOf("a", "b"), typ)
}

func TestAliasIsParseOnly(t *testing.T) {
	tm := testRegistry()

	typ, known := tm.ToIR("toy", "str", Modifiers{})
	assert.True(t, known)
	assert.Equal(t, ir.Text, typ)

	token, err := tm.FromIR("toy", ir.Text)
	require.NoError(t, err)
	assert.Equal(t, "string", token, "FromIR emits the first bound token, not the alias")
}

func TestFromIRUnsupported(t *testing.T) {
	tm := testRegistry()

	_, err := tm.FromIR("toy", ir.JSON)
	require.Error(t, err)
	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "toy", unsupported.Dialect)
	assert.Equal(t, ir.KindJSON, unsupported.Kind)
}

func TestBindOutDoesNotWidenParsing(t *testing.T) {
	tm := testRegistry()

	token, err := tm.FromIR("toy", ir.Date)
	require.NoError(t, err)
	assert.Equal(t, "string", token)

	// "string" still parses as text, never as date.
	typ, known := tm.ToIR("toy", "string", Modifiers{})
	assert.True(t, known)
	assert.Equal(t, ir.Text, typ)
}

func TestRoundTripIsFixedPoint(t *testing.T) {
	tm := testRegistry()

	for _, typ := range []ir.Type{ir.Text, ir.Integer} {
		token, err := tm.FromIR("toy", typ)
		require.NoError(t, err)
		back, known := tm.ToIR("toy", token, Modifiers{})
		assert.True(t, known)
		assert.Equal(t, typ, back)
	}
}

func TestSealPanicsOnLateBind(t *testing.T) {
	tm := testRegistry()
	tm.Seal()

	assert.Panics(t, func() { tm.Bind("toy", "late", ir.KindText) })
	assert.Panics(t, func() { tm.Alias("toy", "late", ir.KindText) })
	assert.Panics(t, func() { tm.BindOut("toy", ir.KindJSON, "late") })
}

func TestSupports(t *testing.T) {
	tm := testRegistry()
	assert.True(t, tm.Supports("toy", ir.KindText))
	assert.True(t, tm.Supports("toy", ir.KindDate))
	assert.False(t, tm.Supports("toy", ir.KindJSON))
}
