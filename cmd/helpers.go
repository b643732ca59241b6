package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/schemaplex/schemaplex/batch"
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/dialects"
	"github.com/schemaplex/schemaplex/ir"
)

// mustRegistry builds the default adapter registry or exits. Registration
// failures are wiring bugs, not user errors.
func mustRegistry() *dialect.Registry {
	reg, _, err := dialects.Default()
	if err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
	return reg
}

func lookupAdapter(reg *dialect.Registry, name string) dialect.Adapter {
	adapter, ok := reg.Lookup(name)
	if !ok {
		fmt.Printf("❌ Unknown dialect %q (available: %v)\n", name, reg.Names())
		os.Exit(1)
	}
	return adapter
}

// parseInputs runs the batch parser over the given files and prints every
// diagnostic. Error diagnostics mean some units were skipped; the
// surviving entities are still returned so partial batches stay usable.
func parseInputs(adapter dialect.Adapter, paths []string) ([]ir.Entity, dialect.Diagnostics) {
	if adapter.Parser == nil {
		fmt.Printf("❌ Dialect %q cannot parse\n", adapter.Name)
		os.Exit(1)
	}

	result, err := batch.ParseFiles(context.Background(), adapter.Parser, paths)
	if err != nil {
		fmt.Println("❌ Parsing inputs:", err)
		os.Exit(1)
	}

	printDiagnostics(result.Diagnostics)
	return result.Entities, result.Diagnostics
}

func printDiagnostics(diags dialect.Diagnostics) {
	for _, d := range diags {
		switch d.Severity {
		case dialect.SeverityError:
			color.Red("   %s", d.String())
		default:
			color.Yellow("   %s", d.String())
		}
	}
}
