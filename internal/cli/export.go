package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/export"
)

// NewExportCmd creates the 'export' command.
func NewExportCmd() *cobra.Command {
	var (
		teams  []string
		from   string
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export triage feedback as a training dataset",
		Long: `Export feedback ledger entries as training examples, with category and
team distributions.

Default format: json (one dataset document)
The jsonl format writes one training example per line without the envelope.

Without --output the dataset is streamed to stdout. File output is guarded by
an exclusive <output>.lock file and written atomically.`,
		Example: `  # Every team, whole history, to stdout
  support-insights export

  # Two teams since January, to a file
  support-insights export --team accounting --team payroll --from 2025-01-01 --output ./training.json

  # One example per line for grep/jq
  support-insights export --format jsonl | jq -r '.trueCategory' | sort | uniq -c`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "jsonl" {
				return fmt.Errorf("invalid --format %q: use json or jsonl", format)
			}
			fromDate, err := parseDate(from)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			return runExport(cmd.Context(), cmd, a.exporter(), teams, fromDate, output, format)
		},
	}

	cmd.Flags().StringSliceVarP(&teams, "team", "t", nil, "Teams to export (default: every team with feedback)")
	cmd.Flags().StringVar(&from, "from", "", "Only entries on or after this date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or jsonl")
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, e *export.Exporter, teams []string, from time.Time, output, format string) error {
	if output == "" {
		var err error
		if format == "jsonl" {
			_, err = e.WriteJSONL(ctx, cmd.OutOrStdout(), teams, from)
		} else {
			_, err = e.WriteJSON(ctx, cmd.OutOrStdout(), teams, from)
		}
		return err
	}

	var (
		dist export.Distributions
		err  error
	)
	if format == "jsonl" {
		dist, err = e.WriteJSONLFile(ctx, output, teams, from)
	} else {
		dist, err = e.WriteFile(ctx, output, teams, from)
	}
	if err != nil {
		return err
	}
	newPrinter(cmd.OutOrStdout()).Success("Exported %d examples from %d teams to %s", dist.Examples, len(dist.Team), output)
	return nil
}

// NewScheduleExportCmd creates the 'schedule-export' command.
func NewScheduleExportCmd() *cobra.Command {
	var (
		schedule     string
		teams        []string
		dir          string
		lookbackDays int
		once         bool
	)

	cmd := &cobra.Command{
		Use:   "schedule-export",
		Short: "Write training dataset snapshots on a cron schedule",
		Long: `Run in the foreground and write a training-<timestamp>.json snapshot to
the export directory on every tick of a standard 5-field cron expression.

Defaults come from the settings file (export.schedule, export.lookback_days,
paths.export_dir). Stop with Ctrl+C; a running export finishes first.`,
		Example: `  support-insights schedule-export
  support-insights schedule-export --schedule "0 6 * * 1" --lookback-days 30
  support-insights schedule-export --once --dir ./exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("schedule") {
				schedule = a.settings.Export.Schedule
			}
			if !cmd.Flags().Changed("lookback-days") {
				lookbackDays = a.settings.Export.LookbackDays
			}
			if dir == "" {
				dir = a.settings.Paths.ExportDir
			}
			job := export.Job{
				Teams:    teams,
				Dir:      dir,
				Lookback: time.Duration(lookbackDays) * 24 * time.Hour,
			}

			scheduler := export.NewScheduler(a.exporter(), a.logger)
			p := newPrinter(cmd.OutOrStdout())

			if once {
				path, err := scheduler.RunOnce(cmd.Context(), job)
				if err != nil {
					return err
				}
				p.Success("Snapshot written to %s", path)
				return nil
			}

			if _, err := scheduler.Add(schedule, job); err != nil {
				return err
			}
			for _, next := range scheduler.Next() {
				p.Info("Next export at %s", next.Format(time.RFC3339))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = scheduler.Run(ctx)
			a.logger.Info("export scheduler stopped", zap.String("schedule", schedule))
			return err
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression (default: export.schedule setting)")
	cmd.Flags().StringSliceVarP(&teams, "team", "t", nil, "Teams to export (default: every team with feedback)")
	cmd.Flags().StringVar(&dir, "dir", "", "Snapshot directory (default: paths.export_dir setting)")
	cmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "Only entries from the last N days, 0 for the whole history (default: export.lookback_days setting)")
	cmd.Flags().BoolVar(&once, "once", false, "Write one snapshot now and exit")
	return cmd
}
