// Package roundtrip is the acceptance oracle for adapter pairs: generate
// source from an entity, re-parse it, and structurally diff the original
// against what came back. The report enumerates every mismatch found
// rather than stopping at the first, so a regression shows its full
// extent in one run.
package roundtrip

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/schemaplex/schemaplex/batch"
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
)

// MismatchType classifies one structural difference.
type MismatchType string

const (
	EntityMissing       MismatchType = "entity_missing"
	FieldCount          MismatchType = "field_count"
	FieldMissing        MismatchType = "field_missing"
	FieldExtra          MismatchType = "field_extra"
	FieldOrder          MismatchType = "field_order"
	TypeMismatch        MismatchType = "type_mismatch"
	RequiredMismatch    MismatchType = "required_mismatch"
	UniqueMismatch      MismatchType = "unique_mismatch"
	DefaultMismatch     MismatchType = "default_mismatch"
	ReferenceMismatch   MismatchType = "reference_mismatch"
	CardinalityMismatch MismatchType = "cardinality_mismatch"
	ActionCount         MismatchType = "action_count"
	ActionMissing       MismatchType = "action_missing"
	StepMismatch        MismatchType = "step_mismatch"
	ImpactMismatch      MismatchType = "impact_mismatch"
)

// Mismatch is one difference between the original entity and its
// round-tripped counterpart.
type Mismatch struct {
	Type     MismatchType `json:"type"`
	Entity   string       `json:"entity"`
	Field    string       `json:"field,omitempty"`
	Action   string       `json:"action,omitempty"`
	Expected string       `json:"expected,omitempty"`
	Actual   string       `json:"actual,omitempty"`
}

func (m Mismatch) String() string {
	where := m.Entity
	if m.Field != "" {
		where += "." + m.Field
	}
	if m.Action != "" {
		where += "!" + m.Action
	}
	if m.Expected == "" && m.Actual == "" {
		return fmt.Sprintf("%s: %s", m.Type, where)
	}
	return fmt.Sprintf("%s: %s: expected %s, got %s", m.Type, where, m.Expected, m.Actual)
}

// Report is the outcome of one round-trip validation run.
type Report struct {
	ID          string              `json:"id"`
	Dialect     string              `json:"dialect"`
	Entity      string              `json:"entity"`
	Mismatches  []Mismatch          `json:"mismatches"`
	Diagnostics dialect.Diagnostics `json:"diagnostics,omitempty"`
}

// Clean reports whether the round trip was lossless.
func (r *Report) Clean() bool {
	return len(r.Mismatches) == 0
}

// Validate drives entity -> generator -> parser -> entity' and diffs the
// two. Diagnostics from both adapter runs are attached to the report so a
// degraded-but-clean trip is still visible.
func Validate(entity ir.Entity, parser dialect.Parser, generator dialect.Generator) (*Report, error) {
	reports, err := ValidateBatch([]ir.Entity{entity}, parser, generator)
	if err != nil {
		return nil, err
	}
	return reports[0], nil
}

// ValidateBatch round-trips the whole entity set through the pair in one
// generate-and-reparse pass and returns one report per entity. The set
// travels together so cross-entity resolution (reciprocal many-to-many
// upgrades, reference targets) sees the same batch the caller holds.
func ValidateBatch(entities []ir.Entity, parser dialect.Parser, generator dialect.Generator) ([]*Report, error) {
	files, genDiags, err := generator.Generate(entities)
	if err != nil {
		return nil, fmt.Errorf("generating %s: %v", generator.Dialect(), err)
	}

	sources := map[string][]byte{}
	for path, text := range files {
		sources[path] = []byte(text)
	}
	parsed, err := batch.ParseSources(context.Background(), parser, sources)
	if err != nil {
		return nil, fmt.Errorf("re-parsing %s: %v", parser.Dialect(), err)
	}

	diags := append(append(dialect.Diagnostics{}, genDiags...), parsed.Diagnostics...)

	byName := map[string]*ir.Entity{}
	for i := range parsed.Entities {
		byName[parsed.Entities[i].Name] = &parsed.Entities[i]
	}

	reports := make([]*Report, 0, len(entities))
	for _, ent := range entities {
		report := &Report{
			ID:          ulid.Make().String(),
			Dialect:     generator.Dialect(),
			Entity:      ent.Name,
			Diagnostics: diags,
		}
		if reparsed, ok := byName[ent.Name]; ok {
			report.Mismatches = append(report.Mismatches, diffEntities(ent, *reparsed)...)
		} else {
			report.Mismatches = append(report.Mismatches, Mismatch{Type: EntityMissing, Entity: ent.Name})
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// diffEntities enumerates every structural difference. Fields are matched
// by name so one missing field reports once instead of cascading; order
// is checked separately over the shared names.
func diffEntities(want, got ir.Entity) []Mismatch {
	var out []Mismatch

	if len(want.Fields) != len(got.Fields) {
		out = append(out, Mismatch{
			Type:     FieldCount,
			Entity:   want.Name,
			Expected: fmt.Sprintf("%d", len(want.Fields)),
			Actual:   fmt.Sprintf("%d", len(got.Fields)),
		})
	}

	gotFields := map[string]ir.Field{}
	for _, f := range got.Fields {
		gotFields[f.Name] = f
	}
	wantFields := map[string]bool{}

	for _, w := range want.Fields {
		wantFields[w.Name] = true
		g, ok := gotFields[w.Name]
		if !ok {
			out = append(out, Mismatch{Type: FieldMissing, Entity: want.Name, Field: w.Name})
			continue
		}
		out = append(out, diffField(want.Name, w, g)...)
	}

	for _, g := range got.Fields {
		if !wantFields[g.Name] {
			out = append(out, Mismatch{Type: FieldExtra, Entity: want.Name, Field: g.Name})
		}
	}

	out = append(out, diffOrder(want, got)...)
	out = append(out, diffActions(want, got)...)
	return out
}

func diffField(entity string, want, got ir.Field) []Mismatch {
	var out []Mismatch

	if !want.Type.Equal(got.Type) {
		out = append(out, Mismatch{
			Type: TypeMismatch, Entity: entity, Field: want.Name,
			Expected: want.Type.String(), Actual: got.Type.String(),
		})
	}
	if want.Required != got.Required {
		out = append(out, Mismatch{
			Type: RequiredMismatch, Entity: entity, Field: want.Name,
			Expected: fmt.Sprintf("%t", want.Required), Actual: fmt.Sprintf("%t", got.Required),
		})
	}
	if want.Unique != got.Unique {
		out = append(out, Mismatch{
			Type: UniqueMismatch, Entity: entity, Field: want.Name,
			Expected: fmt.Sprintf("%t", want.Unique), Actual: fmt.Sprintf("%t", got.Unique),
		})
	}
	if !strPtrEqual(want.Default, got.Default) {
		out = append(out, Mismatch{
			Type: DefaultMismatch, Entity: entity, Field: want.Name,
			Expected: strOrNil(want.Default), Actual: strOrNil(got.Default),
		})
	}
	if want.ReferencedEntity != got.ReferencedEntity {
		out = append(out, Mismatch{
			Type: ReferenceMismatch, Entity: entity, Field: want.Name,
			Expected: want.ReferencedEntity, Actual: got.ReferencedEntity,
		})
	}
	if want.Cardinality != got.Cardinality {
		out = append(out, Mismatch{
			Type: CardinalityMismatch, Entity: entity, Field: want.Name,
			Expected: string(want.Cardinality), Actual: string(got.Cardinality),
		})
	}
	return out
}

// diffOrder checks that the fields both sides share appear in the same
// relative order. Incidental ordering the IR does not consider ordered
// (enum declarations, action placement) is not compared here.
func diffOrder(want, got ir.Entity) []Mismatch {
	gotNames := map[string]bool{}
	for _, f := range got.Fields {
		gotNames[f.Name] = true
	}

	var shared []string
	for _, f := range want.Fields {
		if gotNames[f.Name] {
			shared = append(shared, f.Name)
		}
	}

	idx := 0
	for _, f := range got.Fields {
		if idx < len(shared) && f.Name == shared[idx] {
			idx++
		}
	}
	if idx != len(shared) {
		return []Mismatch{{
			Type:     FieldOrder,
			Entity:   want.Name,
			Expected: fmt.Sprintf("%v", shared),
		}}
	}
	return nil
}

func diffActions(want, got ir.Entity) []Mismatch {
	var out []Mismatch

	if len(want.Actions) != len(got.Actions) {
		out = append(out, Mismatch{
			Type:     ActionCount,
			Entity:   want.Name,
			Expected: fmt.Sprintf("%d", len(want.Actions)),
			Actual:   fmt.Sprintf("%d", len(got.Actions)),
		})
	}

	gotActions := map[string]ir.Action{}
	for _, a := range got.Actions {
		gotActions[a.Name] = a
	}

	for _, w := range want.Actions {
		g, ok := gotActions[w.Name]
		if !ok {
			out = append(out, Mismatch{Type: ActionMissing, Entity: want.Name, Action: w.Name})
			continue
		}
		if len(w.Steps) != len(g.Steps) {
			out = append(out, Mismatch{
				Type: StepMismatch, Entity: want.Name, Action: w.Name,
				Expected: fmt.Sprintf("%d steps", len(w.Steps)),
				Actual:   fmt.Sprintf("%d steps", len(g.Steps)),
			})
		} else {
			for i := range w.Steps {
				if !w.Steps[i].Equal(g.Steps[i]) {
					out = append(out, Mismatch{
						Type: StepMismatch, Entity: want.Name, Action: w.Name,
						Expected: fmt.Sprintf("step %d %s", i, w.Steps[i].Kind),
						Actual:   string(g.Steps[i].Kind),
					})
				}
			}
		}
		if !sliceEqual(w.Impacts, g.Impacts) {
			out = append(out, Mismatch{
				Type: ImpactMismatch, Entity: want.Name, Action: w.Name,
				Expected: fmt.Sprintf("%v", w.Impacts), Actual: fmt.Sprintf("%v", g.Impacts),
			})
		}
	}
	return out
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strOrNil(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
