package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List supported dialects",
	Run: func(cmd *cobra.Command, args []string) {
		reg := mustRegistry()
		for _, name := range reg.Names() {
			adapter, _ := reg.Lookup(name)
			var caps []string
			if adapter.Parser != nil {
				caps = append(caps, "parse")
			}
			if adapter.Generator != nil {
				caps = append(caps, "generate")
			}
			fmt.Printf("   %-10s %-20s %s\n", name, strings.Join(adapter.Extensions, ", "), strings.Join(caps, "+"))
		}
	},
}
