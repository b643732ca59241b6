package typemap

import (
	"fmt"
	"strings"
	"sync"

	"github.com/schemaplex/schemaplex/ir"
)

// UnsupportedTypeError is returned by FromIR when a dialect has no
// encoding for an IR type variant. Callers decide whether to substitute
// (usually text) or abort.
type UnsupportedTypeError struct {
	Dialect string
	Kind    ir.Kind
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("dialect %q has no encoding for IR type %q", e.Dialect, e.Kind)
}

// Modifiers carries the type-level qualifiers a parser extracted next to a
// native type token. EnumValues is consulted only when the token is bound
// to the enum kind.
type Modifiers struct {
	EnumValues []string
}

// Registry is the bidirectional table mapping IR types to each dialect's
// native tokens. It is built once at startup through explicit Bind/Alias
// calls and treated as immutable (and therefore safe to share across
// worker goroutines) for the rest of the run.
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	toIR   map[string]map[string]ir.Kind
	fromIR map[string]map[ir.Kind]string
}

// New returns an empty type mapping registry.
func New() *Registry {
	return &Registry{
		toIR:   map[string]map[string]ir.Kind{},
		fromIR: map[string]map[ir.Kind]string{},
	}
}

// Bind registers a bidirectional mapping between a native token and an IR
// kind for one dialect. The first token bound to a kind becomes the
// canonical token FromIR emits.
func (r *Registry) Bind(dialect, token string, kind ir.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("typemap: Bind after Seal")
	}
	if r.toIR[dialect] == nil {
		r.toIR[dialect] = map[string]ir.Kind{}
		r.fromIR[dialect] = map[ir.Kind]string{}
	}
	r.toIR[dialect][normalize(token)] = kind
	if _, exists := r.fromIR[dialect][kind]; !exists {
		r.fromIR[dialect][kind] = token
	}
}

// Alias registers an extra parse-only token for a kind. Aliases widen what
// ToIR recognizes without changing what FromIR emits.
func (r *Registry) Alias(dialect, token string, kind ir.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("typemap: Alias after Seal")
	}
	if r.toIR[dialect] == nil {
		r.toIR[dialect] = map[string]ir.Kind{}
		r.fromIR[dialect] = map[ir.Kind]string{}
	}
	r.toIR[dialect][normalize(token)] = kind
}

// BindOut registers an emit-only mapping: FromIR renders the kind as
// token, but ToIR never maps the token back to this kind. Used when a
// dialect encodes a variant through a wider native type plus a qualifier
// the parser recognizes separately.
func (r *Registry) BindOut(dialect string, kind ir.Kind, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("typemap: BindOut after Seal")
	}
	if r.fromIR[dialect] == nil {
		r.toIR[dialect] = map[string]ir.Kind{}
		r.fromIR[dialect] = map[ir.Kind]string{}
	}
	r.fromIR[dialect][kind] = token
}

// Seal freezes the registry. Any later Bind/Alias panics, which turns a
// missed registration into a startup failure instead of a data race.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// ToIR maps a native type token to an IR type. It is total: an
// unrecognized token degrades to text and the second return value is
// false so the caller can record a warning diagnostic.
func (r *Registry) ToIR(dialect, token string, mods Modifiers) (ir.Type, bool) {
	r.mu.RLock()
	kinds := r.toIR[dialect]
	r.mu.RUnlock()

	kind, ok := kinds[normalize(token)]
	if !ok {
		return ir.Text, false
	}
	switch kind {
	case ir.KindEnum:
		return ir.EnumOf(mods.EnumValues...), true
	default:
		return ir.Type{Kind: kind}, true
	}
}

// FromIR maps an IR type to the dialect's canonical native token. It
// fails with UnsupportedTypeError when the dialect never bound the
// variant; composite details (enum values, list item, reference target)
// are rendered by the generator, the registry only answers whether and
// how the variant is encodable.
func (r *Registry) FromIR(dialect string, t ir.Type) (string, error) {
	r.mu.RLock()
	tokens := r.fromIR[dialect]
	r.mu.RUnlock()

	token, ok := tokens[t.Kind]
	if !ok {
		return "", &UnsupportedTypeError{Dialect: dialect, Kind: t.Kind}
	}
	return token, nil
}

// Supports reports whether the dialect bound the given IR kind at all.
func (r *Registry) Supports(dialect string, kind ir.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.fromIR[dialect][kind]
	return ok
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
