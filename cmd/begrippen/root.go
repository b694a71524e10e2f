package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/begrippen/internal/config"
	"github.com/Harshitk-cp/begrippen/internal/domain"
)

var (
	verbose      bool
	rulesPath    string
	synonymsGlob string
	logger       = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "begrippen",
	Short: "Offline checks for legal term definitions",
	Long: `begrippen categorizes, validates and compares Dutch legal definitions
using the same rule registry, lexicon and synonym tables as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			logger = zap.NewNop()
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	_ = config.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", config.RulesPath(), "Rule registry YAML file")
	rootCmd.PersistentFlags().StringVar(&synonymsGlob, "synonyms", config.SynonymsGlob(), "Glob of synonym YAML files")
}

// addContextFlags binds the three context fields to cmd.
func addContextFlags(cmd *cobra.Command, ref *domain.ContextRef) {
	cmd.Flags().StringVar(&ref.Organisation, "org", "", "Organisation context, e.g. DJI")
	cmd.Flags().StringVar(&ref.Jurisdiction, "jurisdiction", "", "Jurisdiction context, e.g. NL")
	cmd.Flags().StringVar(&ref.LegalAct, "legal-act", "", "Legal act context, e.g. Awb")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
