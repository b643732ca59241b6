// Package linker is the second pass over a parsed batch: per-file parsing
// runs in parallel with relationship fields holding only a referenced
// name, then Link resolves or flags every placeholder once all files are
// in. It is a pure function over the completed batch, so pass one needs
// no shared mutable state.
package linker

import (
	"fmt"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
)

// UnresolvedReferenceError names a relationship target that is absent
// from the batch. It surfaces as a Warning diagnostic on the owning
// entity; the field is kept with the unresolved name so downstream
// tooling can flag it.
type UnresolvedReferenceError struct {
	Entity string
	Field  string
	Target string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s.%s references unknown entity %q", e.Entity, e.Field, e.Target)
}

// Link resolves relationship fields across the batch. Cardinality follows
// the owning-side rule: a foreign-key-shaped field stays many-to-one; a
// list navigation is one-to-many unless the referenced entity declares a
// reciprocal list navigation, in which case both sides become
// many-to-many.
func Link(entities []ir.Entity) ([]ir.Entity, dialect.Diagnostics) {
	var diags dialect.Diagnostics

	byName := map[string]bool{}
	for _, ent := range entities {
		byName[ent.Name] = true
	}

	listNav := map[string]map[string]bool{} // entity -> referenced entity with a list nav
	for _, ent := range entities {
		for _, f := range ent.Fields {
			if f.IsRelation() && (f.Cardinality == ir.OneToMany || f.Cardinality == ir.ManyToMany) {
				if listNav[ent.Name] == nil {
					listNav[ent.Name] = map[string]bool{}
				}
				listNav[ent.Name][f.ReferencedEntity] = true
			}
		}
	}

	out := make([]ir.Entity, len(entities))
	for i, ent := range entities {
		linked := ent.Clone()
		for j, f := range linked.Fields {
			if !f.IsRelation() {
				continue
			}
			if f.ReferencedEntity == "" {
				diags.Errorf(fmt.Sprintf("%s.%s", ent.Name, f.Name), "relationship field has no referenced entity")
				continue
			}
			if !byName[f.ReferencedEntity] {
				err := &UnresolvedReferenceError{Entity: ent.Name, Field: f.Name, Target: f.ReferencedEntity}
				diags.Warnf(fmt.Sprintf("%s.%s", ent.Name, f.Name), "%s", err.Error())
				continue
			}
			if f.Cardinality == "" {
				linked.Fields[j].Cardinality = ir.ManyToOne
			}
			if f.Cardinality == ir.OneToMany && listNav[f.ReferencedEntity][ent.Name] {
				linked.Fields[j].Cardinality = ir.ManyToMany
			}
		}
		out[i] = linked
	}

	return out, diags
}
