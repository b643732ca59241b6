package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemaplex/schemaplex/runner"
)

var (
	applyDir    string
	dryRunApply bool
)

func init() {
	applyCmd.Flags().StringVarP(&applyDir, "dir", "d", "out", "Directory holding generated .sql files")
	applyCmd.Flags().BoolVar(&dryRunApply, "dry-run", false, "Preview the SQL that would be applied without executing it")
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply generated SQL files to the database",
	Long: `Apply every pending generated .sql file to the database pointed at
by DATABASE_URL. Each run is recorded with a checksum so unchanged
files are never applied twice.

Examples:
  schemaplex apply                  # Apply pending files from out/
  schemaplex apply -d sql/          # Apply from a custom directory
  schemaplex apply --dry-run        # Preview without executing
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if dryRunApply {
			if err := runner.Preview(ctx, applyDir); err != nil {
				fmt.Println("❌ Preview error:", err)
				os.Exit(1)
			}
			return
		}
		if err := runner.Apply(ctx, applyDir); err != nil {
			fmt.Println("❌ Apply error:", err)
			os.Exit(1)
		}
	},
}
