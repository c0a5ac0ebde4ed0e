// File: cmd/rules.go
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/riskledger/internal/mapping"
)

func newRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect asset mapping rules",
	}
	rulesCmd.AddCommand(newRulesCheckCmd())
	return rulesCmd
}

func newRulesCheckCmd() *cobra.Command {
	var rulesPath string

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate an asset mapping rules file and print what it defines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rulesPath
			if path == "" {
				cfg, err := getConfigFromContext(cmd.Context())
				if err != nil {
					return err
				}
				path = cfg.Mapping().RulesPath
			}
			if path == "" {
				return errors.New("no rules file given (--rules or mapping.rules_path)")
			}

			rs, err := mapping.LoadRuleFile(path)
			if err != nil {
				return fmt.Errorf("rules file %s is invalid: %w", path, err)
			}
			printRuleSummary(cmd.OutOrStdout(), path, rs)
			return nil
		},
	}
	checkCmd.Flags().StringVar(&rulesPath, "rules", "", "Rules file to check (default: mapping.rules_path)")
	return checkCmd
}

func printRuleSummary(w io.Writer, path string, rs *mapping.RuleSet) {
	assets := make(map[string]struct{})
	for _, r := range rs.PathRules {
		assets[r.AssetID] = struct{}{}
	}
	for _, r := range rs.KeywordRules {
		assets[r.AssetID] = struct{}{}
	}

	fmt.Fprintf(w, "Rules file: %s\n", path)
	fmt.Fprintf(w, "Path rules: %d\n", len(rs.PathRules))
	fmt.Fprintf(w, "Keyword rules: %d\n", len(rs.KeywordRules))
	fmt.Fprintf(w, "Distinct assets: %d\n", len(assets))
	fmt.Fprintf(w, "Tiers: path_rules=%t keywords=%t ai_fallback=%t\n",
		rs.Tiers.PathRules, rs.Tiers.Keywords, rs.Tiers.AIFallback)
}
