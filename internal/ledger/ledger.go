/*
Package ledger holds the append-only feedback log.

Each team owns an independent log. Appends to one team are serialized so the
log order is the chronological triage order; appends to different teams never
contend. Entries are never rewritten or removed, and readers always get a
snapshot.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/supportinsights/support-insights/internal/model"
)

// ErrInvalidFeedback is returned for feedback missing a team, signal or actual category.
var ErrInvalidFeedback = errors.New("invalid feedback entry")

// Ledger is the feedback log consumed by the learning and export layers.
type Ledger interface {
	// Record appends one entry to the team's log. It never deduplicates.
	Record(ctx context.Context, teamName string, fb model.CategorizationFeedback) error

	// History returns a snapshot of the team's log in insertion order.
	// An unknown team yields an empty slice.
	History(ctx context.Context, teamName string) ([]model.CategorizationFeedback, error)

	// Scan streams the team's log in insertion order, stopping at the first
	// error returned by fn.
	Scan(ctx context.Context, teamName string, fn func(model.CategorizationFeedback) error) error

	// Teams lists teams with at least one entry, sorted by name.
	Teams(ctx context.Context) ([]string, error)
}

// Validate checks the fields every entry must carry.
func Validate(teamName string, fb model.CategorizationFeedback) error {
	switch {
	case teamName == "":
		return fmt.Errorf("%w: empty team name", ErrInvalidFeedback)
	case fb.SignalID == "":
		return fmt.Errorf("%w: empty signal id", ErrInvalidFeedback)
	case fb.ActualCategory == "":
		return fmt.Errorf("%w: empty actual category", ErrInvalidFeedback)
	case fb.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidFeedback)
	}
	return nil
}
