package cli

import (
	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/version"
)

// NewRootCmd creates the support-insights root command with every subcommand.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "support-insights",
		Short: "Categorize support signals and learn from triage feedback",
		Long: `support-insights pulls support signals (Jira CSV exports, JSONL files,
Slack channels, GitHub issues) for each team, assigns provisional categories
from the team's keyword configuration, and records every analyst triage
decision in an append-only feedback ledger.

The ledger drives accuracy statistics, misclassification patterns, keyword
suggestions, pattern trends, bootstrapping of new teams from similar ones,
and training dataset exports.`,
		Version:       version.Current().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "Settings file (default: ~/.support-insights/config.yaml)")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "Log level override: debug, info, warn, error")

	rootCmd.AddCommand(NewTeamCmd())
	rootCmd.AddCommand(NewIngestCmd())
	rootCmd.AddCommand(NewTriageCmd())
	rootCmd.AddCommand(NewStatsCmd())
	rootCmd.AddCommand(NewSuggestCmd())
	rootCmd.AddCommand(NewTrendCmd())
	rootCmd.AddCommand(NewSimilarCmd())
	rootCmd.AddCommand(NewSummaryCmd())
	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewExportCmd())
	rootCmd.AddCommand(NewScheduleExportCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
