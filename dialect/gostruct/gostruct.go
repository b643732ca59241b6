// Package gostruct implements the tagged-Go-struct dialect: exported
// structs carrying `db:"..."` tags, parsed through go/ast and emitted as
// formatted Go source. Enum fields become a named string type with a
// const block. This dialect has no native JSON encoding: FromIR(json)
// fails and the generator's documented fallback substitutes string with a
// warning.
package gostruct

import (
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

// DialectName is the identifier this adapter registers under.
const DialectName = "gostruct"

// Tag grammar: semicolon-separated parts, first bare
// part or column: is the field name, then key:value pairs and flags:
//
//	db:"status;not_null;unique;default:pending"
//	db:"category;ref:Category;not_null"
//	db:"orders;ref:Order;has_many"
//	db:"-"  (ignored field)
const tagKey = "db"

// RegisterTypes binds Go native tokens. json is deliberately unbound so
// FromIR reports UnsupportedType for it. date emits as time.Time plus a
// type:date tag qualifier.
func RegisterTypes(tm *typemap.Registry) {
	tm.Bind(DialectName, "string", ir.KindText)
	tm.Bind(DialectName, "int", ir.KindInteger)
	tm.Bind(DialectName, "float64", ir.KindDecimal)
	tm.Bind(DialectName, "bool", ir.KindBoolean)
	tm.Bind(DialectName, "time.Time", ir.KindDateTime)
	tm.Bind(DialectName, "uuid.UUID", ir.KindUUID)

	tm.Alias(DialectName, "int32", ir.KindInteger)
	tm.Alias(DialectName, "int64", ir.KindInteger)
	tm.Alias(DialectName, "float32", ir.KindDecimal)

	tm.BindOut(DialectName, ir.KindDate, "time.Time")
	tm.BindOut(DialectName, ir.KindEnum, "enum")
	tm.BindOut(DialectName, ir.KindList, "slice")
	tm.BindOut(DialectName, ir.KindReference, "ref")
}

// New builds the gostruct adapter against a sealed type registry.
func New(tm *typemap.Registry) dialect.Adapter {
	return dialect.Adapter{
		Name:       DialectName,
		Extensions: []string{".go"},
		Parser:     &Parser{types: tm},
		Generator:  &Generator{types: tm},
	}
}
