package ir

// Cardinality describes how a relationship field relates two entities.
type Cardinality string

const (
	OneToMany  Cardinality = "one-to-many"
	ManyToOne  Cardinality = "many-to-one"
	ManyToMany Cardinality = "many-to-many"
)

// Entity is the canonical, dialect-neutral representation of one declared
// entity. Entities are value objects: adapters build them once and nothing
// mutates them afterwards; edits go through Clone.
type Entity struct {
	Name     string
	Schema   string
	Fields   []Field
	Actions  []Action
	Metadata map[string]string
}

// Field is one field of an Entity. ReferencedEntity and Cardinality are
// populated only when Type is a reference; Default is nil when the field
// has no declared default.
type Field struct {
	Name             string
	Type             Type
	Required         bool
	Unique           bool
	Default          *string
	ReferencedEntity string
	Cardinality      Cardinality
}

// IsRelation reports whether the field is a relationship field.
func (f Field) IsRelation() bool {
	return f.Type.Kind == KindReference
}

// Field returns the named field and whether it exists.
func (e Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Meta returns the metadata value for key, or "" when unset.
func (e Entity) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}

// Clone returns a deep copy of the entity. Callers that need to edit an
// entity clone it first so the original stays intact for any generator
// already holding it.
func (e Entity) Clone() Entity {
	out := Entity{Name: e.Name, Schema: e.Schema}
	if e.Fields != nil {
		out.Fields = make([]Field, len(e.Fields))
		copy(out.Fields, e.Fields)
		for i, f := range out.Fields {
			if f.Default != nil {
				d := *f.Default
				out.Fields[i].Default = &d
			}
			if f.Type.Kind == KindEnum {
				out.Fields[i].Type.Values = append([]string(nil), f.Type.Values...)
			}
			if f.Type.Kind == KindList && f.Type.Item != nil {
				item := *f.Type.Item
				out.Fields[i].Type.Item = &item
			}
		}
	}
	if e.Actions != nil {
		out.Actions = make([]Action, len(e.Actions))
		for i, a := range e.Actions {
			out.Actions[i] = a.clone()
		}
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// WithMetadata returns a copy of the entity with one metadata key set.
func (e Entity) WithMetadata(key, value string) Entity {
	out := e.Clone()
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	out.Metadata[key] = value
	return out
}

// StrPtr is a convenience for building Field.Default values.
func StrPtr(s string) *string { return &s }
