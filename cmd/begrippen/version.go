package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/begrippen/internal/buildconfig"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of begrippen",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "begrippen %s\n", buildconfig.Current())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
