package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemaplex/schemaplex/batch"
	"github.com/schemaplex/schemaplex/dialects"
	"github.com/schemaplex/schemaplex/introspect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/linker"
)

var (
	reverseFrom   string
	reverseOutDir string
	reverseFromDB bool
)

func init() {
	reverseCmd.Flags().StringVar(&reverseFrom, "from", "sqlddl", "Dialect to parse the input files as")
	reverseCmd.Flags().StringVarP(&reverseOutDir, "out", "o", "schemas", "Output directory for canonical definitions")
	reverseCmd.Flags().BoolVar(&reverseFromDB, "from-db", false, "Introspect the database instead of reading files (requires DATABASE_URL)")
}

var reverseCmd = &cobra.Command{
	Use:   "reverse [files...]",
	Short: "Recover canonical entity definitions from dialect sources",
	Long: `Parse dialect sources (or a live database) and emit canonical
entity definitions.

Examples:
  schemaplex reverse schema.sql
  schemaplex reverse --from prisma schema.prisma
  schemaplex reverse --from-db                  # Introspect DATABASE_URL
  schemaplex reverse --from gostruct -o defs/ models/*.go
`,
	Run: func(cmd *cobra.Command, args []string) {
		reg, tm, err := dialects.Default()
		if err != nil {
			fmt.Println("❌", err)
			os.Exit(1)
		}

		var entities []ir.Entity
		if reverseFromDB {
			tables, enums, err := introspect.IntrospectDatabase(context.Background())
			if err != nil {
				fmt.Println("❌ Introspecting database:", err)
				os.Exit(1)
			}
			raw, diags := introspect.Entities(tables, enums, tm)
			printDiagnostics(diags)
			linked, linkDiags := linker.Link(raw)
			printDiagnostics(linkDiags)
			entities = linked
		} else {
			if len(args) == 0 {
				fmt.Println("❌ No input files (pass files or --from-db)")
				os.Exit(1)
			}
			source := lookupAdapter(reg, reverseFrom)
			entities, _ = parseInputs(source, args)
		}

		if len(entities) == 0 {
			fmt.Println("✅ No entities found, nothing to write.")
			return
		}

		canonical := lookupAdapter(reg, "specql")
		generated, err := batch.Generate(canonical.Generator, entities)
		if err != nil {
			fmt.Println("❌ Generating canonical definitions:", err)
			os.Exit(1)
		}
		printDiagnostics(generated.Diagnostics)

		written, err := batch.WriteFiles(reverseOutDir, generated.Files)
		if err != nil {
			fmt.Println("❌ Writing files:", err)
			os.Exit(1)
		}
		for _, p := range written {
			fmt.Println("✅ Recovered:", p)
		}
	},
}
