// Package prisma implements the Prisma schema dialect: model and enum
// blocks with attribute-based modifiers. Relations follow Prisma's owning
// side convention (the side carrying @relation(fields: ...) holds the
// foreign key); UniversalActions have no Prisma encoding and are dropped
// with a warning on generation.
package prisma

import (
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// DialectName is the identifier this adapter registers under.
const DialectName = "prisma"

// RegisterTypes binds Prisma's scalar tokens. Uuid and Date have no
// dedicated scalar: they emit as String/DateTime plus a @db qualifier the
// parser recognizes, so they are emit-only bindings here.
func RegisterTypes(tm *typemap.Registry) {
	tm.Bind(DialectName, "String", ir.KindText)
	tm.Bind(DialectName, "Int", ir.KindInteger)
	tm.Bind(DialectName, "Float", ir.KindDecimal)
	tm.Bind(DialectName, "Boolean", ir.KindBoolean)
	tm.Bind(DialectName, "DateTime", ir.KindDateTime)
	tm.Bind(DialectName, "Json", ir.KindJSON)

	tm.Alias(DialectName, "BigInt", ir.KindInteger)
	tm.Alias(DialectName, "Decimal", ir.KindDecimal)

	tm.BindOut(DialectName, ir.KindUUID, "String")
	tm.BindOut(DialectName, ir.KindDate, "DateTime")
	tm.BindOut(DialectName, ir.KindEnum, "enum")
	tm.BindOut(DialectName, ir.KindList, "list")
	tm.BindOut(DialectName, ir.KindReference, "relation")
}

// New builds the prisma adapter against a sealed type registry.
func New(tm *typemap.Registry) dialect.Adapter {
	return dialect.Adapter{
		Name:       DialectName,
		Extensions: []string{".prisma"},
		Parser:     &Parser{types: tm},
		Generator:  &Generator{types: tm},
	}
}

// prismaScalars is the closed set of native scalar tokens. A capitalized
// field type outside this set is an enum or a relation, never a scalar.
var prismaScalars = map[string]bool{
	"String":   true,
	"Int":      true,
	"BigInt":   true,
	"Float":    true,
	"Decimal":  true,
	"Boolean":  true,
	"DateTime": true,
	"Json":     true,
	"Bytes":    true,
}
