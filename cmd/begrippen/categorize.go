package main

import (
	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/begrippen/internal/config"
	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/service"
)

var categorizeCtx domain.ContextRef

var categorizeCmd = &cobra.Command{
	Use:   "categorize [term] [definition]",
	Short: "Assign an ontological category to a definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		categorizer := service.NewCategorizerService(logger)
		if err := categorizer.SetHighConfidence(config.HighConfidence()); err != nil {
			return err
		}
		res, err := categorizer.Categorize(args[0], args[1], categorizeCtx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
	addContextFlags(categorizeCmd, &categorizeCtx)
}
