package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/begrippen/internal/config"
	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/lookup"
	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/Harshitk-cp/begrippen/internal/service"
)

var errRejected = errors.New("definition rejected")

var (
	validateCtx       domain.ContextRef
	validateCategory  string
	validateLookup    string
	validateStrict    bool
	validateRequestID string
)

var validateCmd = &cobra.Command{
	Use:   "validate [term] [definition]",
	Short: "Validate a definition against the rule registry",
	Long: `Validate runs every enabled rule and prints the versioned validation
result. With --strict the command exits non-zero when the definition is not
acceptable.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := domain.ParseCategory(validateCategory)
		if err != nil {
			return err
		}

		snap, err := registry.Load(rulesPath)
		if err != nil {
			return err
		}

		var web domain.WebLookup
		if validateLookup != "" {
			svc, closeFn, err := lookup.Open(cmd.Context(), validateLookup, config.RedisURL(), config.LookupTimeout(), logger)
			if err != nil {
				return err
			}
			defer closeFn()
			if svc != nil {
				web = svc
			}
		}

		var scope *domain.ContextRef
		if !validateCtx.IsEmpty() {
			scope = &validateCtx
		}

		svc := service.NewValidationService(registry.NewStaticHolder(snap, logger), service.DefaultRuleCatalog(web), logger)
		svc.SetRuleTimeout(config.RuleTimeout())
		res, err := svc.Validate(cmd.Context(), service.ValidationRequest{
			Begrip:        args[0],
			Text:          args[1],
			Category:      category,
			Context:       scope,
			CorrelationID: validateRequestID,
		})
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if validateStrict && !res.IsAcceptable {
			return fmt.Errorf("%w: score %.2f, %d violation(s)", errRejected, res.OverallScore, len(res.Violations))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addContextFlags(validateCmd, &validateCtx)
	validateCmd.Flags().StringVar(&validateCategory, "category", "", "Category: type, proces, resultaat or exemplaar")
	validateCmd.Flags().StringVar(&validateLookup, "web-lookup", "", "Web lookup YAML; enables SAM-01")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Exit non-zero when the definition is not acceptable")
	validateCmd.Flags().StringVar(&validateRequestID, "correlation-id", "", "Correlation id to stamp on the result")
}
