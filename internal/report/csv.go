package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/supportinsights/support-insights/internal/model"
)

// DateLayout is the Jira export date format used in downloads.
const DateLayout = "02/01/2006 15:04"

var csvHeader = []string{"Issue key", "Summary", "Category", "Created", "Resolved", "Review_Flag"}

// WriteCSV writes signals in the Jira-style layout the csv source reads back.
// Uncategorized signals have an empty Category cell.
func WriteCSV(w io.Writer, signals []model.SupportSignal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sig := range signals {
		resolved := ""
		if sig.ResolvedAt != nil {
			resolved = sig.ResolvedAt.UTC().Format(DateLayout)
		}
		row := []string{
			sig.ID,
			sig.Title,
			sig.CategoryName(),
			sig.Timestamp.UTC().Format(DateLayout),
			resolved,
			ReviewFlag(sig),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", sig.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
