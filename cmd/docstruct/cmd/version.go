package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		v, commit, date := version.Info()
		fmt.Fprintf(cmd.OutOrStdout(), "docstruct %s (commit: %s, built: %s)\n", v, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
