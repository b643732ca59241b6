package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplex/schemaplex/ir"
)

func TestDefaultRegistersBuiltins(t *testing.T) {
	reg, tm, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"gostruct", "prisma", "specql", "sqlddl"}, reg.Names())

	for _, name := range reg.Names() {
		adapter, ok := reg.Lookup(name)
		require.True(t, ok)
		assert.NotNil(t, adapter.Parser, name)
		assert.NotNil(t, adapter.Generator, name)
		assert.NotEmpty(t, adapter.Extensions, name)
	}

	assert.Panics(t, func() { tm.Bind("specql", "late", ir.KindText) }, "registry comes back sealed")
}

func TestDefaultTypeBindings(t *testing.T) {
	_, tm, err := Default()
	require.NoError(t, err)

	// Every dialect maps the scalar core both ways.
	for _, name := range []string{"specql", "prisma", "gostruct", "sqlddl"} {
		for _, kind := range []ir.Kind{ir.KindText, ir.KindInteger, ir.KindDecimal, ir.KindBoolean, ir.KindDateTime, ir.KindUUID} {
			assert.True(t, tm.Supports(name, kind), "%s should support %s", name, kind)
		}
	}

	// gostruct deliberately has no JSON encoding.
	assert.False(t, tm.Supports("gostruct", ir.KindJSON))
	assert.True(t, tm.Supports("sqlddl", ir.KindJSON))
}
