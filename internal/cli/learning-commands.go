package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatsCmd shows categorization accuracy and misclassification patterns.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats <team>",
		Short: "Show categorization accuracy and misclassification patterns",
		Example: `  support-insights stats accounting
  support-insights stats accounting --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadLearning(cmd, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), struct {
					TeamName               string             `json:"teamName"`
					CategorizationAccuracy float64            `json:"categorizationAccuracy"`
					PerCategoryAccuracy    map[string]float64 `json:"perCategoryAccuracy"`
					FeedbackCount          int                `json:"feedbackCount"`
					Misclassifications     any                `json:"misclassifications"`
				}{data.TeamName, data.CategorizationAccuracy, data.PerCategoryAccuracy, data.FeedbackCount, data.Misclassifications})
			}

			p := newPrinter(cmd.OutOrStdout())
			p.Header("Learning statistics for %s", data.TeamName)
			if data.FeedbackCount == 0 {
				p.Warning("No triage feedback recorded yet")
				p.Muted("Run 'support-insights triage %s <signal-id> <category>' to record decisions.", data.TeamName)
				return nil
			}

			p.Field("feedback entries", data.FeedbackCount)
			p.Field("accuracy", percent(data.CategorizationAccuracy))
			p.Println()

			categories := make([]string, 0, len(data.PerCategoryAccuracy))
			for c := range data.PerCategoryAccuracy {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, []string{c, percent(data.PerCategoryAccuracy[c])})
			}
			p.Table([]string{"CATEGORY", "ACCURACY"}, rows)

			if len(data.Misclassifications) > 0 {
				p.Println()
				p.Println("Misclassifications:")
				rows = rows[:0]
				for _, m := range data.Misclassifications {
					predicted := "(none)"
					if m.PredictedCategory != nil {
						predicted = *m.PredictedCategory
					}
					rows = append(rows, []string{predicted, m.ActualCategory, strconv.Itoa(m.Count), strings.Join(m.ExampleSignalIDs, ", ")})
				}
				p.Table([]string{"PREDICTED", "ACTUAL", "COUNT", "EXAMPLES"}, rows)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// NewSuggestCmd shows keyword suggestions per category.
func NewSuggestCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <team>",
		Short: "Suggest keywords for categories from triage corrections",
		Long: `Suggest keywords for each active category. Candidates are frequent
tokens of signals that analysts moved into the category from elsewhere,
excluding keywords the category already has.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadLearning(cmd, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), data.KeywordSuggestions)
			}

			p := newPrinter(cmd.OutOrStdout())
			p.Header("Keyword suggestions for %s", data.TeamName)
			if len(data.KeywordSuggestions) == 0 {
				p.Println("No suggestions: no category has corrected signals yet.")
				return nil
			}
			for _, s := range data.KeywordSuggestions {
				p.Printf("%s (confidence %s)\n", s.CategoryName, percent(s.Confidence))
				for _, c := range s.Candidates {
					p.Printf("  + %-20s seen %d times, confidence %s\n", c.Keyword, c.Frequency, percent(c.Confidence))
				}
				p.Muted("  %s", s.Reasoning)
				p.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// NewTrendCmd shows whether each category's predictions improve over time.
func NewTrendCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "trend <team>",
		Short: "Show categorization trends per category",
		Long: `Show, per category, the weekly share of correct predictions and whether
the recent half of the history is better (improving), worse (declining) or
within 5 points (stable) of the earlier half.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadLearning(cmd, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), data.PatternTrends)
			}

			p := newPrinter(cmd.OutOrStdout())
			p.Header("Pattern trends for %s", data.TeamName)
			if len(data.PatternTrends) == 0 {
				p.Println("No trends: no feedback recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(data.PatternTrends))
			for _, t := range data.PatternTrends {
				rows = append(rows, []string{t.Pattern, t.Trend, percent(t.Prior), percent(t.Recent), fmt.Sprint(len(t.Samples))})
			}
			p.Table([]string{"CATEGORY", "TREND", "EARLIER", "RECENT", "WEEKS"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// NewSimilarCmd ranks configured teams by keyword overlap with sample signals.
func NewSimilarCmd() *cobra.Command {
	var (
		signalsPath string
		top         int
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:     "similar",
		Short:   "Find teams whose keywords overlap a set of signals",
		Example: `  support-insights similar --signals ./sample.csv --top 3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			signals, err := readSignalsFile(ctx, signalsPath, a.logger)
			if err != nil {
				return err
			}
			similar, err := a.service.SimilarTeams(ctx, signals, top)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), similar)
			}

			p := newPrinter(cmd.OutOrStdout())
			if len(similar) == 0 {
				p.Println("No team shares keywords with these signals.")
				return nil
			}
			p.Header("Similar teams (%d signals)", len(signals))
			printSimilar(p, similar)
			return nil
		},
	}

	cmd.Flags().StringVar(&signalsPath, "signals", "", "Sample signals (.csv or .jsonl)")
	cmd.Flags().IntVarP(&top, "top", "n", 5, "Number of teams to show (0 for all)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("signals")
	return cmd
}
