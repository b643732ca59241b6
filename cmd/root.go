package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schemaplex",
	Short: "A retargetable schema compiler for entity definitions",
	Long: `schemaplex parses entity definitions written in one dialect and
re-emits them in another, through a canonical intermediate form.

Examples:

  schemaplex generate --to prisma schemas/*.yaml
  schemaplex reverse --from sqlddl schema.sql
  schemaplex roundtrip --dialect gostruct schemas/*.yaml
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(reverseCmd)
	rootCmd.AddCommand(roundtripCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(dialectsCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(statusCmd)
}
