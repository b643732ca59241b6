package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schemaplex/schemaplex/roundtrip"
)

var (
	roundtripFrom    string
	roundtripDialect string
	roundtripFormat  string
)

func init() {
	roundtripCmd.Flags().StringVar(&roundtripFrom, "from", "specql", "Dialect to parse the input files as")
	roundtripCmd.Flags().StringVarP(&roundtripDialect, "dialect", "d", "", "Dialect to round-trip through (required)")
	roundtripCmd.Flags().StringVarP(&roundtripFormat, "format", "f", "text", "Output format (text, json)")
	roundtripCmd.MarkFlagRequired("dialect")
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip [files...]",
	Short: "Validate that entities survive a generate-then-parse cycle",
	Long: `Generate each entity in the target dialect, re-parse the output,
and report every structural difference.

Examples:
  schemaplex roundtrip --dialect prisma schemas/*.yaml
  schemaplex roundtrip --dialect gostruct --format json schemas/*.yaml
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := mustRegistry()
		source := lookupAdapter(reg, roundtripFrom)
		target := lookupAdapter(reg, roundtripDialect)
		if target.Parser == nil || target.Generator == nil {
			fmt.Printf("❌ Dialect %q does not support both directions\n", roundtripDialect)
			os.Exit(1)
		}

		entities, _ := parseInputs(source, args)
		if len(entities) == 0 {
			fmt.Println("✅ No entities found, nothing to validate.")
			return
		}

		reports, err := roundtrip.ValidateBatch(entities, target.Parser, target.Generator)
		if err != nil {
			fmt.Println("❌ Round-trip validation:", err)
			os.Exit(1)
		}

		dirty := 0
		for _, report := range reports {
			if !report.Clean() {
				dirty++
			}
			switch roundtripFormat {
			case "json":
				data, err := report.JSON()
				if err != nil {
					fmt.Println("❌ Encoding report:", err)
					os.Exit(1)
				}
				fmt.Println(string(data))
			default:
				if report.Clean() {
					color.Green("✅ %s", report.Summary())
				} else {
					color.Red("❌ %s", report.Detail())
				}
			}
		}

		if dirty > 0 {
			fmt.Printf("\n❌ %d of %d entities did not round-trip cleanly.\n", dirty, len(reports))
			os.Exit(1)
		}
		if roundtripFormat != "json" {
			fmt.Printf("\n✅ All %d entities round-tripped cleanly.\n", len(reports))
		}
	},
}
