package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/begrippen/internal/registry"
	"github.com/Harshitk-cp/begrippen/internal/service"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the enabled rules of the registry",
	Long: `Load the rule registry, report configuration errors and list the
enabled rules. Codes without a built-in implementation are flagged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := registry.Load(rulesPath)
		if err != nil {
			return err
		}
		summary := snap.Summary()
		if rulesJSON {
			return printJSON(cmd.OutOrStdout(), summary)
		}

		catalog := service.DefaultRuleCatalog(nil)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "contract %s (%s)\n", summary.ContractVersion, summary.Source)
		fmt.Fprintf(out, "overall_accept %.2f  max_failure_ratio %.2f\n\n",
			summary.Thresholds.OverallAccept, summary.Thresholds.MaxFailureRatio)

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tWEIGHT\tBLOCKING\tSCOPE\tIMPLEMENTED")
		for _, r := range summary.Rules {
			scope := "all"
			if len(r.CategoryScope) > 0 {
				names := make([]string, len(r.CategoryScope))
				for i, c := range r.CategoryScope {
					names[i] = string(c)
				}
				scope = strings.Join(names, ",")
			}
			_, implemented := catalog.Get(r.Code)
			fmt.Fprintf(tw, "%s\t%.2f\t%t\t%s\t%t\n", r.Code, r.Weight, r.Blocking, scope, implemented)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "Output the registry summary as JSON")
}
