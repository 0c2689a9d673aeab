package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/config"
	"github.com/supportinsights/support-insights/internal/sources"
	"github.com/supportinsights/support-insights/internal/version"
)

// NewVersionCmd creates the 'version' command.
func NewVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the current version, commit hash, and build date.

--check also looks up the latest GitHub release (cached for 24 hours).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())
			info := version.Current()
			p.Printf("Version:  %s\n", info.Version)
			p.Printf("Commit:   %s\n", info.Commit)
			p.Printf("Built:    %s\n", info.Date)

			if !check {
				return nil
			}
			return checkLatest(cmd, p, info.Version)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	return cmd
}

func checkLatest(cmd *cobra.Command, p *printer, current string) error {
	settings, err := config.LoadSettings(stringFlag(cmd, flagConfig))
	if err != nil {
		return err
	}
	cachePath, err := version.DefaultCachePath()
	if err != nil {
		cachePath = ""
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	client := sources.NewGitHubClient(ctx, settings.GitHub.Token)
	rel, err := version.NewChecker(client, cachePath).Latest(ctx)
	if err != nil {
		return err
	}

	p.Println()
	if version.UpdateAvailable(current, rel.Version) {
		p.Warning("Version %s is available: %s", rel.Version, rel.URL)
		return nil
	}
	p.Success("Up to date (latest release %s)", rel.Version)
	return nil
}
