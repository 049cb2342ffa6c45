package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Promptflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "promptflow version %s\n", strings.TrimSpace(promptflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
