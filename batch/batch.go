// Package batch runs parsing and generation across independent units of
// input. Per-file parses are embarrassingly parallel: the only shared
// state is the read-only type registry, and the cross-file linking pass
// is a barrier after all parses finish, not a lock.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/linker"
)

// Result carries everything one batch run produced: the linked entities
// and every diagnostic in file order.
type Result struct {
	Entities    []ir.Entity
	Diagnostics dialect.Diagnostics
}

// ParseFiles reads and parses every file concurrently, then links the
// batch. One unreadable or malformed file contributes diagnostics, never
// aborts the others; the returned error is reserved for context
// cancellation.
func ParseFiles(ctx context.Context, parser dialect.Parser, paths []string) (Result, error) {
	type fileResult struct {
		entities []ir.Entity
		diags    dialect.Diagnostics
	}

	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(path)
			if err != nil {
				results[i].diags.Errorf(path, "reading file: %v", err)
				return nil
			}
			entities, diags, err := parser.Parse(source, path)
			if err != nil {
				results[i].diags.Errorf(path, "parsing file: %v", err)
				return nil
			}
			results[i] = fileResult{entities: entities, diags: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, r := range results {
		out.Entities = append(out.Entities, r.entities...)
		out.Diagnostics = append(out.Diagnostics, r.diags...)
	}

	linked, linkDiags := linker.Link(out.Entities)
	out.Entities = linked
	out.Diagnostics = append(out.Diagnostics, linkDiags...)
	return out, nil
}

// ParseSources is ParseFiles over in-memory sources, keyed by a name used
// in diagnostics. Sources parse concurrently in sorted-name order.
func ParseSources(ctx context.Context, parser dialect.Parser, sources map[string][]byte) (Result, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	type fileResult struct {
		entities []ir.Entity
		diags    dialect.Diagnostics
	}

	results := make([]fileResult, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entities, diags, err := parser.Parse(sources[name], name)
			if err != nil {
				results[i].diags.Errorf(name, "parsing: %v", err)
				return nil
			}
			results[i] = fileResult{entities: entities, diags: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, r := range results {
		out.Entities = append(out.Entities, r.entities...)
		out.Diagnostics = append(out.Diagnostics, r.diags...)
	}

	linked, linkDiags := linker.Link(out.Entities)
	out.Entities = linked
	out.Diagnostics = append(out.Diagnostics, linkDiags...)
	return out, nil
}

// Generated is the output of one generation run.
type Generated struct {
	Files       map[string]string
	Diagnostics dialect.Diagnostics
}

// Generate runs the generator over the batch. Generators see the whole
// entity set at once (enum declarations are deduplicated across
// entities), so the per-entity parallelism lives inside callers that
// shard batches, not here.
func Generate(gen dialect.Generator, entities []ir.Entity) (Generated, error) {
	files, diags, err := gen.Generate(entities)
	if err != nil {
		return Generated{}, fmt.Errorf("generating %s: %v", gen.Dialect(), err)
	}
	return Generated{Files: files, Diagnostics: diags}, nil
}

// WriteFiles writes generated sources under dir, creating parent
// directories as needed. Paths are written in sorted order so logs are
// stable.
func WriteFiles(dir string, files map[string]string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var written []string
	for _, p := range paths {
		full := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return written, fmt.Errorf("creating output directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(files[p]), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %v", full, err)
		}
		written = append(written, full)
	}
	return written, nil
}
