package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/config"
	"github.com/supportinsights/support-insights/internal/insights"
	"github.com/supportinsights/support-insights/internal/model"
)

// NewTeamCmd creates the 'team' command group.
func NewTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage team configurations",
		Long: `Create, inspect and bootstrap team configurations.

Each team is stored as one JSON file in the teams directory
(default: ~/.support-insights/teams/<team>.json).`,
	}

	cmd.AddCommand(newTeamListCmd())
	cmd.AddCommand(newTeamShowCmd())
	cmd.AddCommand(newTeamInitCmd())
	cmd.AddCommand(newTeamBootstrapCmd())
	return cmd
}

func newTeamListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured teams",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			teams, err := a.configs.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), teams)
			}

			p := newPrinter(cmd.OutOrStdout())
			if len(teams) == 0 {
				p.Println("No teams configured.")
				p.Muted("Run 'support-insights team init <name>' to create one.")
				return nil
			}
			p.Header("Teams (%d)", len(teams))
			rows := make([][]string, 0, len(teams))
			for _, t := range teams {
				rows = append(rows, []string{
					t.TeamName,
					t.DisplayName,
					fmt.Sprint(len(t.ActiveCategories())),
					fmt.Sprint(len(t.EnabledDataSources())),
				})
			}
			p.Table([]string{"TEAM", "DISPLAY NAME", "CATEGORIES", "SOURCES"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newTeamShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <team>",
		Short: "Show a team's configuration",
		Example: `  support-insights team show accounting
  support-insights team show accounting --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := a.service.Team(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			printTeam(newPrinter(cmd.OutOrStdout()), cfg)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func printTeam(p *printer, cfg model.TeamConfiguration) {
	p.Header("%s (%s)", cfg.DisplayName, cfg.TeamName)

	p.Println("Categories:")
	if len(cfg.Categories) == 0 {
		p.Muted("  none")
	}
	for _, cat := range cfg.Categories {
		state := ""
		if !cat.IsActive {
			state = " (inactive)"
		}
		p.Printf("  %s%s  priority %d\n", cat.Name, state, cat.Priority)
		p.Muted("    %s", strings.Join(cat.Keywords, ", "))
	}

	p.Println()
	p.Println("Data sources:")
	if len(cfg.DataSources) == 0 {
		p.Muted("  none")
	}
	for _, ds := range cfg.DataSources {
		state := "enabled"
		if !ds.IsEnabled {
			state = "disabled"
		}
		p.Printf("  %s (%s)\n", ds.SourceType, state)
		for k, v := range ds.Settings {
			p.Muted("    %s=%s", k, v)
		}
	}

	p.Println()
	p.Println("Triage:")
	p.Field("manual scoring", cfg.TriageSettings.EnableManualScoring)
	p.Field("default score", cfg.TriageSettings.DefaultScore)
	if len(cfg.TriageSettings.HighPriorityCategories) > 0 {
		p.Field("high priority", strings.Join(cfg.TriageSettings.HighPriorityCategories, ", "))
	}
}

func newTeamInitCmd() *cobra.Command {
	var (
		displayName   string
		categories    []string
		dataSources   []string
		highPriority  []string
		manualScoring bool
		defaultScore  float64
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "init <team>",
		Short: "Create a team configuration",
		Long: `Create a team configuration.

Categories are given as "Name:keyword one,keyword two" and get priorities in
the order they are listed. Data sources are given as
"type:key=value;key=value", for example "csv:path=/data/jira.csv" or
"github:repo=acme/support;labels=bug,customer".`,
		Example: `  support-insights team init accounting \
    --category "BankFeeds:bank feed,sync" \
    --category "Certificate:certificate,tls" \
    --source "csv:path=./jira.csv" \
    --manual-scoring`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewTeamConfiguration(args[0], displayName)
			for i, spec := range categories {
				cat, err := parseCategorySpec(spec, i+1)
				if err != nil {
					return err
				}
				cfg.Categories = append(cfg.Categories, cat)
			}
			for _, spec := range dataSources {
				ds, err := parseSourceSpec(spec)
				if err != nil {
					return err
				}
				cfg.DataSources = append(cfg.DataSources, ds)
			}
			cfg.TriageSettings.EnableManualScoring = manualScoring
			cfg.TriageSettings.DefaultScore = defaultScore
			cfg.TriageSettings.HighPriorityCategories = append(cfg.TriageSettings.HighPriorityCategories, highPriority...)

			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if _, exists, err := a.configs.Get(ctx, cfg.TeamName); err != nil {
				return err
			} else if exists && !force {
				return fmt.Errorf("%w: %s (use --force to overwrite)", insights.ErrTeamExists, cfg.TeamName)
			}
			if err := a.configs.Save(ctx, cfg); err != nil {
				return err
			}

			newPrinter(cmd.OutOrStdout()).Success("Team %s saved to %s", cfg.TeamName, a.configs.PathFor(cfg.TeamName))
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name (default: team name)")
	cmd.Flags().StringArrayVarP(&categories, "category", "c", nil, `Category as "Name:kw1,kw2" (repeatable)`)
	cmd.Flags().StringArrayVarP(&dataSources, "source", "s", nil, `Data source as "type:key=value;key=value" (repeatable)`)
	cmd.Flags().StringSliceVar(&highPriority, "high-priority", nil, "High priority category names")
	cmd.Flags().BoolVar(&manualScoring, "manual-scoring", false, "Assign manual scores during triage")
	cmd.Flags().Float64Var(&defaultScore, "default-score", 5, "Default manual score")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing team")
	return cmd
}

// parseCategorySpec parses "Name:kw1,kw2".
func parseCategorySpec(spec string, priority int) (model.CategoryConfiguration, error) {
	name, rawKeywords, _ := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return model.CategoryConfiguration{}, fmt.Errorf("invalid category %q: missing name", spec)
	}
	keywords := []string{}
	for _, kw := range strings.Split(rawKeywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return model.CategoryConfiguration{Name: name, Keywords: keywords, Priority: priority, IsActive: true}, nil
}

// parseSourceSpec parses "type:key=value;key=value".
func parseSourceSpec(spec string) (model.DataSourceConfiguration, error) {
	sourceType, rawSettings, _ := strings.Cut(spec, ":")
	sourceType = strings.ToLower(strings.TrimSpace(sourceType))
	if sourceType == "" {
		return model.DataSourceConfiguration{}, fmt.Errorf("invalid source %q: missing type", spec)
	}
	ds := model.DataSourceConfiguration{SourceType: sourceType, IsEnabled: true}
	for _, pair := range strings.Split(rawSettings, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return model.DataSourceConfiguration{}, fmt.Errorf("invalid source setting %q in %q: want key=value", pair, spec)
		}
		if ds.Settings == nil {
			ds.Settings = map[string]string{}
		}
		ds.Settings[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return ds, nil
}

func newTeamBootstrapCmd() *cobra.Command {
	var (
		signalsPath string
		displayName string
		save        bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "bootstrap <team>",
		Short: "Suggest a configuration for a new team from similar teams",
		Long: `Compare sample signals of a new team with every configured team and
suggest categories and data sources from the closest match. Categories of
teams tied for the best similarity are merged.

With --save the suggestion is written as the new team's configuration.`,
		Example: `  support-insights team bootstrap payroll --signals ./payroll-sample.csv
  support-insights team bootstrap payroll --signals ./sample.jsonl --save`,
		Args: cobra.ExactArgs(1),
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

			result, err := a.service.Bootstrap(ctx, insights.BootstrapRequest{
				TeamName:    strings.TrimSpace(args[0]),
				DisplayName: displayName,
				Signals:     signals,
				Save:        save,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			p := newPrinter(cmd.OutOrStdout())
			if len(result.SimilarTeams) == 0 {
				p.Warning("No similar team found; start from an empty configuration")
				return nil
			}
			p.Header("Bootstrap for %s (confidence %s)", result.TeamName, percent(result.ConfidenceScore))
			printSimilar(p, result.SimilarTeams)
			p.Println()
			p.Println("Suggested categories:")
			for _, cat := range result.SuggestedCategories {
				p.Printf("  %s: %s\n", cat.Name, strings.Join(cat.Keywords, ", "))
			}
			p.Println("Suggested data sources:")
			for _, ds := range result.SuggestedDataSources {
				p.Printf("  %s\n", ds.SourceType)
			}
			if save {
				p.Success("Saved to %s", a.configs.PathFor(result.TeamName))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&signalsPath, "signals", "", "Sample signals (.csv or .jsonl)")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name for the saved team")
	cmd.Flags().BoolVar(&save, "save", false, "Save the suggested configuration")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("signals")
	return cmd
}

func printSimilar(p *printer, similar []model.SimilarTeam) {
	rows := make([][]string, 0, len(similar))
	for _, st := range similar {
		rows = append(rows, []string{st.TeamName, fmt.Sprintf("%.3f", st.SimilarityScore), strings.Join(st.SharedKeywords, ", ")})
	}
	p.Table([]string{"TEAM", "SIMILARITY", "SHARED KEYWORDS"}, rows)
}
