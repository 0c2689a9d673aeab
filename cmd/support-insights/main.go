/*
Package main is the entry point for the support-insights CLI.

support-insights categorizes support signals for each team from its keyword
configuration and learns from analyst triage decisions.

Usage:

	support-insights [command]

Examples:

	# Create a team and pull its signals
	support-insights team init accounting --category "BankFeeds:bank feed,sync" --source "csv:path=./jira.csv"
	support-insights ingest accounting

	# Record a triage decision and review accuracy
	support-insights triage accounting SUP-12 BankFeeds
	support-insights stats accounting
*/
package main

import (
	"fmt"
	"os"

	"github.com/supportinsights/support-insights/internal/cli"
	"github.com/supportinsights/support-insights/internal/version"
)

// Set with -ldflags "-X main.buildVersion=..." by the release build.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func main() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
