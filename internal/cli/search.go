package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/search"
	"github.com/supportinsights/support-insights/internal/storage"
)

// NewSearchCmd creates the 'search' command.
func NewSearchCmd() *cobra.Command {
	var (
		team       string
		category   string
		limit      int
		reindex    bool
		counts     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over ingested signals",
		Long: `Search signal titles and descriptions with BM25 ranking.

An empty query lists signals matching the filters. --reindex rebuilds the
team's index entries from the signal store first; --counts shows hit counts
per category instead of the hits.`,
		Example: `  support-insights search "bank feed" --team accounting
  support-insights search --team accounting --category Certificate
  support-insights search --team accounting --counts
  support-insights search expired --team accounting --reindex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reindex && team == "" {
				return fmt.Errorf("--reindex requires --team")
			}

			a, err := newApp(cmd, appOptions{index: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if team != "" {
				cfg, err := a.service.Team(cmd.Context(), team)
				if err != nil {
					return err
				}
				team = cfg.TeamName
			}

			if reindex {
				n, err := reindexTeam(cmd, a, team)
				if err != nil {
					return err
				}
				if !jsonOutput {
					newPrinter(cmd.OutOrStdout()).Success("Reindexed %d signals for %s", n, team)
				}
			}

			q := search.Query{Team: team, Category: category, Limit: limit}
			if len(args) == 1 {
				q.Text = args[0]
			}

			if counts {
				cc, err := a.index.CategoryCounts(q)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), cc)
				}
				rows := make([][]string, 0, len(cc))
				for _, c := range cc {
					rows = append(rows, []string{c.Category, strconv.Itoa(c.Count)})
				}
				newPrinter(cmd.OutOrStdout()).Table([]string{"CATEGORY", "HITS"}, rows)
				return nil
			}

			results, err := a.index.SearchQuery(q)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			p := newPrinter(cmd.OutOrStdout())
			if len(results) == 0 {
				p.Println("No matching signals.")
				return nil
			}
			for _, r := range results {
				cat := r.Category
				if cat == "" {
					cat = "Uncategorized"
				}
				p.Printf("%s  %s/%s  [%s]  %.3f\n", r.Timestamp.UTC().Format("2006-01-02"), r.TeamName, r.SignalID, cat, r.Score)
				p.Printf("    %s\n", r.Title)
				if d := strings.TrimSpace(r.Description); d != "" {
					p.Muted("    %s", truncate(d, 100))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&team, "team", "t", "", "Only this team's signals")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of hits")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "Rebuild the team's index from stored signals first")
	cmd.Flags().BoolVar(&counts, "counts", false, "Show hit counts per category")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func reindexTeam(cmd *cobra.Command, a *app, team string) (int, error) {
	signals, err := a.service.Signals(cmd.Context(), team, storage.SignalQuery{})
	if err != nil {
		return 0, err
	}
	if err := a.index.RemoveTeam(team); err != nil {
		return 0, err
	}
	if err := a.index.IndexSignals(team, signals); err != nil {
		return 0, err
	}
	return len(signals), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
