// Package sqlddl implements the PostgreSQL DDL dialect: CREATE TYPE enum
// declarations, CREATE TABLE statements with column constraints, COMMENT
// ON TABLE markers carrying the canonical entity name, and pl/pgSQL
// functions lowering UniversalActions.
package sqlddl

import (
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// DialectName is the identifier this adapter registers under.
const DialectName = "sqlddl"

// RegisterTypes binds the PostgreSQL tokens the generator emits plus the
// aliases live databases commonly report.
func RegisterTypes(tm *typemap.Registry) {
	tm.Bind(DialectName, "text", ir.KindText)
	tm.Bind(DialectName, "integer", ir.KindInteger)
	tm.Bind(DialectName, "numeric", ir.KindDecimal)
	tm.Bind(DialectName, "boolean", ir.KindBoolean)
	tm.Bind(DialectName, "timestamptz", ir.KindDateTime)
	tm.Bind(DialectName, "date", ir.KindDate)
	tm.Bind(DialectName, "uuid", ir.KindUUID)
	tm.Bind(DialectName, "jsonb", ir.KindJSON)

	tm.Alias(DialectName, "varchar", ir.KindText)
	tm.Alias(DialectName, "character varying", ir.KindText)
	tm.Alias(DialectName, "char", ir.KindText)
	tm.Alias(DialectName, "int", ir.KindInteger)
	tm.Alias(DialectName, "int4", ir.KindInteger)
	tm.Alias(DialectName, "int8", ir.KindInteger)
	tm.Alias(DialectName, "bigint", ir.KindInteger)
	tm.Alias(DialectName, "smallint", ir.KindInteger)
	tm.Alias(DialectName, "serial", ir.KindInteger)
	tm.Alias(DialectName, "bigserial", ir.KindInteger)
	tm.Alias(DialectName, "decimal", ir.KindDecimal)
	tm.Alias(DialectName, "real", ir.KindDecimal)
	tm.Alias(DialectName, "double precision", ir.KindDecimal)
	tm.Alias(DialectName, "bool", ir.KindBoolean)
	tm.Alias(DialectName, "timestamp", ir.KindDateTime)
	tm.Alias(DialectName, "timestamp with time zone", ir.KindDateTime)
	tm.Alias(DialectName, "timestamp without time zone", ir.KindDateTime)
	tm.Alias(DialectName, "json", ir.KindJSON)

	tm.BindOut(DialectName, ir.KindEnum, "enum")
	tm.BindOut(DialectName, ir.KindList, "array")
	tm.BindOut(DialectName, ir.KindReference, "uuid")
}

// New builds the sqlddl adapter against a sealed type registry.
func New(tm *typemap.Registry) dialect.Adapter {
	return dialect.Adapter{
		Name:       DialectName,
		Extensions: []string{".sql"},
		Parser:     &Parser{types: tm},
		Generator:  &Generator{types: tm},
	}
}
