package ir

import (
	"fmt"
	"strings"
)

// Kind identifies one variant of the closed IR type union. Every dialect
// adapter maps its native tokens onto exactly this set.
type Kind string

const (
	KindText      Kind = "text"
	KindInteger   Kind = "integer"
	KindDecimal   Kind = "decimal"
	KindBoolean   Kind = "boolean"
	KindDateTime  Kind = "datetime"
	KindDate      Kind = "date"
	KindUUID      Kind = "uuid"
	KindJSON      Kind = "json"
	KindEnum      Kind = "enum"
	KindList      Kind = "list"
	KindReference Kind = "reference"
)

// Type is the canonical field type. Values is populated only for enum,
// Item only for list, Entity only for reference.
type Type struct {
	Kind   Kind
	Values []string
	Item   *Type
	Entity string
}

var (
	Text     = Type{Kind: KindText}
	Integer  = Type{Kind: KindInteger}
	Decimal  = Type{Kind: KindDecimal}
	Boolean  = Type{Kind: KindBoolean}
	DateTime = Type{Kind: KindDateTime}
	Date     = Type{Kind: KindDate}
	UUID     = Type{Kind: KindUUID}
	JSON     = Type{Kind: KindJSON}
)

// EnumOf builds an enum type. Value order is significant and preserved.
func EnumOf(values ...string) Type {
	return Type{Kind: KindEnum, Values: values}
}

// ListOf builds a list type with the given item type.
func ListOf(item Type) Type {
	return Type{Kind: KindList, Item: &item}
}

// RefTo builds a reference type pointing at another entity by name.
func RefTo(entity string) Type {
	return Type{Kind: KindReference, Entity: entity}
}

// IsScalar reports whether t is one of the plain (non-composite) variants.
func (t Type) IsScalar() bool {
	switch t.Kind {
	case KindEnum, KindList, KindReference:
		return false
	}
	return true
}

// Equal compares two types structurally, including enum value order.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindEnum:
		if len(t.Values) != len(other.Values) {
			return false
		}
		for i := range t.Values {
			if t.Values[i] != other.Values[i] {
				return false
			}
		}
		return true
	case KindList:
		if t.Item == nil || other.Item == nil {
			return t.Item == other.Item
		}
		return t.Item.Equal(*other.Item)
	case KindReference:
		return t.Entity == other.Entity
	}
	return true
}

// String renders the type in the canonical inline expression form, e.g.
// "text", "enum[a,b]", "list(text)", "ref(Category)".
func (t Type) String() string {
	switch t.Kind {
	case KindEnum:
		return fmt.Sprintf("enum[%s]", strings.Join(t.Values, ","))
	case KindList:
		if t.Item == nil {
			return "list(text)"
		}
		return fmt.Sprintf("list(%s)", t.Item.String())
	case KindReference:
		return fmt.Sprintf("ref(%s)", t.Entity)
	}
	return string(t.Kind)
}
