package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jirasafe version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("jirasafe", version)
	},
}
