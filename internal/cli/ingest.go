package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/insights"
	"github.com/supportinsights/support-insights/internal/model"
)

// NewIngestCmd creates the 'ingest' command.
func NewIngestCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <team>",
		Short: "Pull, categorize and store signals from a team's data sources",
		Long: `Read every enabled data source of a team, assign provisional categories,
store the signals and update the search index.

A failing source is reported and the remaining sources are still read.
Categories already confirmed through triage are kept on re-ingestion.`,
		Example: `  support-insights ingest accounting`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{index: true})
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.service.Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), ingestJSON(report)); err != nil {
					return err
				}
				return report.Err()
			}

			p := newPrinter(cmd.OutOrStdout())
			p.Header("Ingested %s", report.TeamName)
			if len(report.Sources) == 0 {
				p.Warning("No enabled data sources")
				return nil
			}
			rows := make([][]string, 0, len(report.Sources))
			for _, src := range report.Sources {
				status := iconSuccess
				if src.Err != nil {
					status = iconError + " " + src.Err.Error()
				}
				rows = append(rows, []string{src.SourceType, strconv.Itoa(src.Fetched), strconv.Itoa(src.Saved), status})
			}
			p.Table([]string{"SOURCE", "FETCHED", "SAVED", "STATUS"}, rows)
			p.Println()
			p.Field("saved", report.Saved)
			p.Field("needs review", report.NeedsReview)

			if err := report.Err(); err != nil {
				return fmt.Errorf("some sources failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

type sourceReportJSON struct {
	SourceType string `json:"sourceType"`
	Fetched    int    `json:"fetched"`
	Saved      int    `json:"saved"`
	Error      string `json:"error,omitempty"`
}

type ingestReportJSON struct {
	TeamName    string             `json:"teamName"`
	Saved       int                `json:"saved"`
	NeedsReview int                `json:"needsReview"`
	Sources     []sourceReportJSON `json:"sources"`
}

func ingestJSON(report insights.IngestReport) ingestReportJSON {
	out := ingestReportJSON{
		TeamName:    report.TeamName,
		Saved:       report.Saved,
		NeedsReview: report.NeedsReview,
		Sources:     []sourceReportJSON{},
	}
	for _, src := range report.Sources {
		row := sourceReportJSON{SourceType: src.SourceType, Fetched: src.Fetched, Saved: src.Saved}
		if src.Err != nil {
			row.Error = src.Err.Error()
		}
		out.Sources = append(out.Sources, row)
	}
	return out
}

// NewTriageCmd creates the 'triage' command.
func NewTriageCmd() *cobra.Command {
	var score float64

	cmd := &cobra.Command{
		Use:   "triage <team> <signal-id> <category>",
		Short: "Record an analyst's category for a signal",
		Long: `Confirm or correct a signal's category. The decision overwrites the
signal's category and is appended to the team's feedback ledger together with
the engine's provisional category.

When manual scoring is enabled for the team, the signal's score defaults to
the category's configured score (or the team default); --score overrides it.`,
		Example: `  support-insights triage accounting ARL-1042 BankFeeds
  support-insights triage accounting ARL-1042 Certificate --score 8`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{index: true})
			if err != nil {
				return err
			}
			defer a.Close()

			var manual *float64
			if cmd.Flags().Changed("score") {
				manual = model.Float64Ptr(score)
			}

			res, err := a.service.Triage(cmd.Context(), args[0], args[1], args[2], manual)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			predicted := res.Feedback.Predicted()
			if predicted == "" {
				predicted = "(none)"
			}
			if res.Feedback.WasCorrect() {
				p.Success("%s confirmed as %s", res.Signal.ID, res.Feedback.ActualCategory)
			} else {
				p.Info("%s recategorized: %s -> %s", res.Signal.ID, predicted, res.Feedback.ActualCategory)
			}
			if res.Signal.ManualScore != nil {
				p.Field("score", *res.Signal.ManualScore)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&score, "score", 0, "Manual score (overrides the configured default)")
	return cmd
}
