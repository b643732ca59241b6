package ir

// Equal compares two entities structurally: name, schema, fields in order,
// and actions in order. Metadata is an opaque side channel and does not
// participate in equality.
func (e Entity) Equal(other Entity) bool {
	if e.Name != other.Name || e.Schema != other.Schema {
		return false
	}
	if len(e.Fields) != len(other.Fields) {
		return false
	}
	for i := range e.Fields {
		if !e.Fields[i].Equal(other.Fields[i]) {
			return false
		}
	}
	if len(e.Actions) != len(other.Actions) {
		return false
	}
	for i := range e.Actions {
		if !e.Actions[i].Equal(other.Actions[i]) {
			return false
		}
	}
	return true
}

// Equal compares two fields on every semantic property: name, type
// variant, required, unique, default, relationship target and cardinality.
func (f Field) Equal(other Field) bool {
	if f.Name != other.Name || !f.Type.Equal(other.Type) {
		return false
	}
	if f.Required != other.Required || f.Unique != other.Unique {
		return false
	}
	if !strPtrEqual(f.Default, other.Default) {
		return false
	}
	return f.ReferencedEntity == other.ReferencedEntity && f.Cardinality == other.Cardinality
}

// Equal compares two actions including step order.
func (a Action) Equal(other Action) bool {
	if a.Name != other.Name || a.Entity != other.Entity {
		return false
	}
	if len(a.Steps) != len(other.Steps) {
		return false
	}
	for i := range a.Steps {
		if !a.Steps[i].Equal(other.Steps[i]) {
			return false
		}
	}
	if len(a.Impacts) != len(other.Impacts) {
		return false
	}
	for i := range a.Impacts {
		if a.Impacts[i] != other.Impacts[i] {
			return false
		}
	}
	return true
}

// Equal compares two steps structurally.
func (s Step) Equal(other Step) bool {
	if s.Kind != other.Kind || s.Expression != other.Expression {
		return false
	}
	if s.Entity != other.Entity || s.Target != other.Target || s.Message != other.Message {
		return false
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
