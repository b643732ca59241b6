package dialect

import (
	"fmt"
	"sort"

	"github.com/schemaplex/schemaplex/ir"
)

// Parser turns dialect-specific source text into IR entities. A malformed
// declaration inside the source yields an Error diagnostic and is omitted
// from the result; the returned error is reserved for failures that make
// the whole unit unreadable (I/O level), never for bad declarations.
// Source that contains no entity declarations at all is not an error:
// the parser returns an empty slice.
type Parser interface {
	Dialect() string
	Parse(source []byte, filename string) ([]ir.Entity, Diagnostics, error)
}

// Generator turns IR entities into dialect source text, keyed by relative
// file path. Generation is deterministic: identical input produces
// byte-identical output, and field emission order follows IR field order.
type Generator interface {
	Dialect() string
	Generate(entities []ir.Entity) (map[string]string, Diagnostics, error)
}

// Adapter bundles the parser and generator for one dialect. Either side
// may be nil for dialects that only support one direction.
type Adapter struct {
	Name       string
	Extensions []string
	Parser     Parser
	Generator  Generator
}

// Registry maps dialect identifier strings to adapters. Registration is
// explicit; there is no plugin discovery or reflection.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds an adapter under its dialect name. Registering the same
// name twice is a programming error and fails loudly.
func (r *Registry) Register(a Adapter) error {
	if a.Name == "" {
		return fmt.Errorf("adapter has empty dialect name")
	}
	if _, exists := r.adapters[a.Name]; exists {
		return fmt.Errorf("dialect %q already registered", a.Name)
	}
	r.adapters[a.Name] = a
	return nil
}

// Lookup returns the adapter registered under name.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns all registered dialect names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
