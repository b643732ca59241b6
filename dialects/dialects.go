// Package dialects wires the built-in adapters into ready registries.
// Registration is explicit and happens here, once, so a missing type
// binding or duplicate dialect name fails at startup rather than deep in
// a run.
package dialects

import (
	"fmt"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/dialect/gostruct"
	"github.com/schemaplex/schemaplex/dialect/prisma"
	"github.com/schemaplex/schemaplex/dialect/specql"
	"github.com/schemaplex/schemaplex/dialect/sqlddl"
	"github.com/schemaplex/schemaplex/typemap"
)

// Default builds the adapter registry with every built-in dialect bound
// against one shared, sealed type mapping registry.
func Default() (*dialect.Registry, *typemap.Registry, error) {
	tm := typemap.New()
	specql.RegisterTypes(tm)
	prisma.RegisterTypes(tm)
	gostruct.RegisterTypes(tm)
	sqlddl.RegisterTypes(tm)
	tm.Seal()

	reg := dialect.NewRegistry()
	for _, adapter := range []dialect.Adapter{
		specql.New(tm),
		prisma.New(tm),
		gostruct.New(tm),
		sqlddl.New(tm),
	} {
		if err := reg.Register(adapter); err != nil {
			return nil, nil, fmt.Errorf("registering dialects: %v", err)
		}
	}

	return reg, tm, nil
}
