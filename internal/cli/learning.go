package cli

import (
	"github.com/spf13/cobra"

	"github.com/supportinsights/support-insights/internal/model"
)

// loadLearning recomputes a team's learning data from its ledger.
func loadLearning(cmd *cobra.Command, teamName string) (model.TeamLearningData, error) {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return model.TeamLearningData{}, err
	}
	defer a.Close()

	return a.service.Learning(cmd.Context(), teamName)
}
