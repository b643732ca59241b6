package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemaplex/schemaplex/runner"
)

var statusDir string

func init() {
	statusCmd.Flags().StringVarP(&statusDir, "dir", "d", "out", "Directory holding generated .sql files")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending generated files",
	Run: func(cmd *cobra.Command, args []string) {
		applied, pending, failed, err := runner.Status(context.Background(), statusDir)
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		fmt.Println("✅ Applied files:")
		for _, f := range applied {
			fmt.Println("   -", f)
		}

		if len(failed) > 0 {
			fmt.Println("\n❌ Failed runs:")
			for _, f := range failed {
				fmt.Printf("   - %s: %s\n", f.Filename, f.ErrorMessage)
			}
		}

		fmt.Println("\n🕒 Pending files:")
		for _, f := range pending {
			fmt.Println("   -", f)
		}
	},
}
