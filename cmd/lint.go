package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schemaplex/schemaplex/validator"
)

var (
	lintFrom   string
	lintFormat string
)

func init() {
	lintCmd.Flags().StringVar(&lintFrom, "from", "specql", "Dialect to parse the input files as")
	lintCmd.Flags().StringVarP(&lintFormat, "format", "f", "text", "Output format (text, json)")
}

var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Check entity definitions for structural problems",
	Long: `Lint entity definitions: duplicate names, malformed relationships,
empty enums, ill-typed defaults and dangling action targets.

Examples:
  schemaplex lint schemas/*.yaml
  schemaplex lint --from prisma schema.prisma
  schemaplex lint --format json schemas/*.yaml
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := mustRegistry()
		source := lookupAdapter(reg, lintFrom)
		entities, _ := parseInputs(source, args)

		result := validator.ValidateEntities(entities)

		if lintFormat == "json" {
			data, err := result.JSON()
			if err != nil {
				fmt.Println("❌ Encoding result:", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
			if !result.Valid {
				os.Exit(1)
			}
			return
		}

		for _, issue := range result.Errors {
			color.Red("   ❌ [%s] %s", issue.Type, issue.Message)
		}
		for _, issue := range result.Warnings {
			color.Yellow("   ⚠️  [%s] %s", issue.Type, issue.Message)
		}
		for _, issue := range result.Info {
			color.Cyan("   ℹ️  [%s] %s", issue.Type, issue.Message)
		}

		if !result.Valid {
			fmt.Printf("\n❌ Lint failed: %d error(s), %d warning(s).\n", len(result.Errors), len(result.Warnings))
			os.Exit(1)
		}
		fmt.Printf("✅ %d entities linted: %d warning(s), %d hint(s).\n", len(entities), len(result.Warnings), len(result.Info))
	},
}
