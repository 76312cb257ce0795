// Package cli implements the hearth command-line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/hearth-hq/hearth/internal/cli.version=1.2.3"
	version = "0.4.1"
	logo    = "\n" +
		"  _                     _   _\n" +
		" | |__   ___  __ _ _ __| |_| |__\n" +
		" | '_ \\ / _ \\/ _` | '__| __| '_ \\\n" +
		" | | | |  __/ (_| | |  | |_| | | |\n" +
		" |_| |_|\\___|\\__,_|_|   \\__|_| |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "hearth - household calendar assistant",
	Long:  color.CyanString(logo) + "\nWatches the household's calendars, surfaces scheduling problems, and runs trusted automations.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(unwatchCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(trustCmd)
}
