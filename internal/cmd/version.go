package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ownmytodo/todoai/internal/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Gofulmen, Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		extended, _ := cmd.Flags().GetBool("extended")

		if !extended {
			_, err := fmt.Fprintf(out, "%s %s\n", appName, versionInfo.Version)
			return err
		}

		info := handlers.CurrentVersion()
		fmt.Fprintf(out, "%s %s\n", appName, versionInfo.Version)
		fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
		fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
		fmt.Fprintf(out, "Go: %s\n", info.App.GoVersion)
		fmt.Fprintf(out, "Platform: %s\n", info.Runtime.Platform)
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "Gofulmen: %s\n", info.Dependencies.Gofulmen)
		fmt.Fprintf(out, "Crucible: %s\n", info.Dependencies.Crucible)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("extended", "e", false, "show extended version information")
}
