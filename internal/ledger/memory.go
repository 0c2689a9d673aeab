package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/supportinsights/support-insights/internal/model"
)

// MemoryLedger keeps every team's log in process memory.
type MemoryLedger struct {
	mu    sync.Mutex
	teams map[string]*teamLog
}

// teamLog is one team's log. mu is that team's single-writer lock.
type teamLog struct {
	mu      sync.RWMutex
	entries []model.CategorizationFeedback
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{teams: make(map[string]*teamLog)}
}

func (l *MemoryLedger) team(name string, create bool) *teamLog {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.teams[name]
	if !ok && create {
		t = &teamLog{}
		l.teams[name] = t
	}
	return t
}

// Record appends fb to the team's log, assigning an ID when it has none.
func (l *MemoryLedger) Record(ctx context.Context, teamName string, fb model.CategorizationFeedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(teamName, fb); err != nil {
		return err
	}
	if fb.ID == "" {
		fb.ID = ulid.Make().String()
	}

	t := l.team(teamName, true)
	t.mu.Lock()
	t.entries = append(t.entries, fb)
	t.mu.Unlock()
	return nil
}

// snapshot returns the entries visible at call time. Elements below the
// returned length are never written again, so callers may read them unlocked.
func (t *teamLog) snapshot() []model.CategorizationFeedback {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[:len(t.entries):len(t.entries)]
}

// History returns a copy of the team's log.
func (l *MemoryLedger) History(ctx context.Context, teamName string) ([]model.CategorizationFeedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := l.team(teamName, false)
	if t == nil {
		return []model.CategorizationFeedback{}, nil
	}
	snap := t.snapshot()
	out := make([]model.CategorizationFeedback, len(snap))
	copy(out, snap)
	return out, nil
}

// Scan streams the team's log without copying it.
func (l *MemoryLedger) Scan(ctx context.Context, teamName string, fn func(model.CategorizationFeedback) error) error {
	t := l.team(teamName, false)
	if t == nil {
		return nil
	}
	for _, fb := range t.snapshot() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(fb); err != nil {
			return err
		}
	}
	return nil
}

// Teams lists teams that have entries.
func (l *MemoryLedger) Teams(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	names := make([]string, 0, len(l.teams))
	for name := range l.teams {
		names = append(names, name)
	}
	l.mu.Unlock()

	sort.Strings(names)
	return names, nil
}
