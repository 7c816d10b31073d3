package cmd

import (
	"fmt"

	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Print("ingressparse"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Version returns the build version, "unknown" when not stamped in via
// ldflags.
func Version() string {
	if version.Version == "" {
		return "unknown"
	}
	return version.Version
}
