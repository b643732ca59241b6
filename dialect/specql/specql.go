// Package specql implements the canonical serialized form of the IR: a
// human-editable YAML document per entity with entity, schema, fields,
// actions and metadata top-level keys. It is the interchange boundary
// between a reverse-engineering run and a later generate run, and is
// itself just another dialect adapter pair.
package specql

import (
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// DialectName is the identifier this adapter registers under.
const DialectName = "specql"

// RegisterTypes binds the canonical type tokens. The inline expression
// grammar (ref(...), list(...), enum[...]) is handled by the parser; the
// registry carries the scalar tokens and the kind support table.
func RegisterTypes(tm *typemap.Registry) {
	tm.Bind(DialectName, "text", ir.KindText)
	tm.Bind(DialectName, "integer", ir.KindInteger)
	tm.Bind(DialectName, "decimal", ir.KindDecimal)
	tm.Bind(DialectName, "boolean", ir.KindBoolean)
	tm.Bind(DialectName, "datetime", ir.KindDateTime)
	tm.Bind(DialectName, "date", ir.KindDate)
	tm.Bind(DialectName, "uuid", ir.KindUUID)
	tm.Bind(DialectName, "json", ir.KindJSON)
	tm.Bind(DialectName, "enum", ir.KindEnum)
	tm.Bind(DialectName, "list", ir.KindList)
	tm.Bind(DialectName, "ref", ir.KindReference)

	tm.Alias(DialectName, "string", ir.KindText)
	tm.Alias(DialectName, "int", ir.KindInteger)
	tm.Alias(DialectName, "numeric", ir.KindDecimal)
	tm.Alias(DialectName, "float", ir.KindDecimal)
	tm.Alias(DialectName, "bool", ir.KindBoolean)
	tm.Alias(DialectName, "timestamp", ir.KindDateTime)
	tm.Alias(DialectName, "jsonb", ir.KindJSON)
}

// New builds the specql adapter against a sealed type registry.
func New(tm *typemap.Registry) dialect.Adapter {
	return dialect.Adapter{
		Name:       DialectName,
		Extensions: []string{".yaml", ".yml"},
		Parser:     &Parser{types: tm},
		Generator:  &Generator{types: tm},
	}
}
