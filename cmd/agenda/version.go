package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/agenda"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of agenda",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "agenda version %s\n", strings.TrimSpace(agenda.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
