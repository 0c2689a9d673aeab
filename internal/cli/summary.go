package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/model"
	"github.com/supportinsights/support-insights/internal/report"
	"github.com/supportinsights/support-insights/internal/storage"
)

// NewSummaryCmd creates the 'summary' command.
func NewSummaryCmd() *cobra.Command {
	var (
		category   string
		review     string
		since      string
		until      string
		csvPath    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "summary <team>",
		Short: "Summarize a team's signals by category, review flag and month",
		Long: `Show headline metrics (total, flagged for review, unique categories,
resolved), a per-category breakdown, the review flag distribution, a monthly
timeline per category and the most recent signals.

Filters narrow every view. --csv also writes the filtered signals in the
Jira export layout.`,
		Example: `  support-insights summary accounting
  support-insights summary accounting --review flagged --since 2025-01-01
  support-insights summary accounting --category BankFeeds --csv ./bankfeeds.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := report.ParseReviewStatus(review)
			if !ok {
				return fmt.Errorf("invalid --review %q: use all, flagged or auto-assigned", review)
			}
			from, err := parseDate(since)
			if err != nil {
				return err
			}
			to, err := parseDate(until)
			if err != nil {
				return err
			}
			filter := report.Filter{Category: category, Review: status, Since: from, Until: to}

			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			signals, err := a.service.Signals(cmd.Context(), args[0], storage.SignalQuery{})
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeCSVFile(csvPath, filter.Apply(signals)); err != nil {
					return err
				}
			}

			summary := report.Summarize(signals, filter)
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(newPrinter(cmd.OutOrStdout()), args[0], summary)
			if csvPath != "" {
				newPrinter(cmd.OutOrStdout()).Success("Filtered signals written to %s", csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", `Only this category ("Uncategorized" for none)`)
	cmd.Flags().StringVar(&review, "review", "all", "Review status: all, flagged or auto-assigned")
	cmd.Flags().StringVar(&since, "since", "", "Only signals created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Only signals created before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write the filtered signals to this CSV file")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func printSummary(p *printer, team string, s report.Summary) {
	p.Header("Support insights for %s", team)
	p.Field("total", s.Total)
	p.Field("flagged for review", s.Flagged)
	p.Field("unique categories", s.UniqueCategories)
	p.Field("resolved", s.Resolved)
	if s.Total == 0 {
		return
	}

	p.Println()
	rows := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Category, strconv.Itoa(c.Total), strconv.Itoa(c.Flagged), strconv.Itoa(c.Resolved)})
	}
	p.Table([]string{"CATEGORY", "TOTAL", "FLAGGED", "RESOLVED"}, rows)

	p.Println()
	p.Printf("Review flags: YES %d, NO %d\n", s.ReviewFlags["YES"], s.ReviewFlags["NO"])

	p.Println()
	rows = rows[:0]
	for _, m := range s.Timeline {
		rows = append(rows, []string{m.Month, m.Category, strconv.Itoa(m.Count)})
	}
	p.Table([]string{"MONTH", "CATEGORY", "COUNT"}, rows)

	p.Println()
	p.Println("Recent signals:")
	rows = rows[:0]
	for _, sig := range s.Recent {
		rows = append(rows, []string{sig.Timestamp.UTC().Format(report.DateLayout), sig.ID, sig.CategoryName(), report.ReviewFlag(sig), sig.Title})
	}
	p.Table([]string{"CREATED", "ID", "CATEGORY", "REVIEW", "SUMMARY"}, rows)
}

func writeCSVFile(path string, signals []model.SupportSignal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create csv directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := report.WriteCSV(f, signals); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
