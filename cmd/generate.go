package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/schemaplex/schemaplex/batch"
)

var (
	generateFrom   string
	generateTo     string
	generateOutDir string
	dryRunGenerate bool
)

func init() {
	generateCmd.Flags().StringVar(&generateFrom, "from", "specql", "Dialect to parse the input files as")
	generateCmd.Flags().StringVar(&generateTo, "to", "", "Dialect to generate (required)")
	generateCmd.Flags().StringVarP(&generateOutDir, "out", "o", "out", "Output directory for generated files")
	generateCmd.Flags().BoolVar(&dryRunGenerate, "dry-run", false, "Print generated sources without writing files")
	generateCmd.MarkFlagRequired("to")
}

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Generate target dialect sources from entity definitions",
	Long: `Parse entity definitions and emit them in another dialect.

Examples:
  schemaplex generate --to prisma schemas/*.yaml
  schemaplex generate --to sqlddl -o sql/ schemas/*.yaml
  schemaplex generate --from prisma --to gostruct schema.prisma
  schemaplex generate --to sqlddl --dry-run schemas/*.yaml
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := mustRegistry()
		source := lookupAdapter(reg, generateFrom)
		target := lookupAdapter(reg, generateTo)
		if target.Generator == nil {
			fmt.Printf("❌ Dialect %q cannot generate\n", generateTo)
			os.Exit(1)
		}

		entities, _ := parseInputs(source, args)
		if len(entities) == 0 {
			fmt.Println("✅ No entities found, nothing to generate.")
			return
		}

		generated, err := batch.Generate(target.Generator, entities)
		if err != nil {
			fmt.Println("❌ Generating:", err)
			os.Exit(1)
		}
		printDiagnostics(generated.Diagnostics)

		if dryRunGenerate {
			paths := make([]string, 0, len(generated.Files))
			for p := range generated.Files {
				paths = append(paths, p)
			}
			sort.Strings(paths)

			fmt.Println("\n================ DRY RUN: Generation Preview ================")
			for _, p := range paths {
				fmt.Printf("\n-- File: %s --\n", p)
				fmt.Println(generated.Files[p])
			}
			fmt.Println("==============================================================")
			fmt.Println("(Dry run only. No files were written.)")
			return
		}

		written, err := batch.WriteFiles(generateOutDir, generated.Files)
		if err != nil {
			fmt.Println("❌ Writing files:", err)
			os.Exit(1)
		}
		for _, p := range written {
			fmt.Println("✅ Generated:", p)
		}
	},
}
