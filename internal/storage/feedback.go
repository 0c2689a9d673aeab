package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/supportinsights/support-insights/internal/ledger"
	"github.com/supportinsights/support-insights/internal/model"
)

var _ ledger.Ledger = (*SQLiteStorage)(nil)

// Record appends one feedback entry. Appends for the same team are serialized.
func (s *SQLiteStorage) Record(ctx context.Context, teamName string, fb model.CategorizationFeedback) error {
	if err := ledger.Validate(teamName, fb); err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	if fb.ID == "" {
		fb.ID = ulid.Make().String()
	}

	lock := s.teamLock(teamName)
	lock.Lock()
	defer lock.Unlock()

	return insertFeedback(ctx, db, teamName, fb)
}

// RecordTriage stores an analyst decision: the signal row takes
// fb.ActualCategory and manualScore, and fb is appended to the ledger.
// Both writes commit together or not at all.
func (s *SQLiteStorage) RecordTriage(ctx context.Context, teamName string, fb model.CategorizationFeedback, manualScore *float64) error {
	if err := ledger.Validate(teamName, fb); err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	if fb.ID == "" {
		fb.ID = ulid.Make().String()
	}

	lock := s.teamLock(teamName)
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin triage for %s: %w", fb.SignalID, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE signals
		SET category = ?, manual_score = ?, needs_review = 0, triaged = 1
		WHERE team_name = ? AND id = ?
	`, fb.ActualCategory, nullFloat(manualScore), teamName, fb.SignalID)
	if err != nil {
		return fmt.Errorf("update triage for %s: %w", fb.SignalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update triage for %s: %w", fb.SignalID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrSignalNotFound, fb.SignalID)
	}

	if err := insertFeedback(ctx, tx, teamName, fb); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit triage for %s: %w", fb.SignalID, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertFeedback(ctx context.Context, db execer, teamName string, fb model.CategorizationFeedback) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO feedback (id, team_name, signal_id, predicted_category, actual_category, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		fb.ID,
		teamName,
		fb.SignalID,
		nullString(fb.PredictedCategory),
		fb.ActualCategory,
		formatTime(fb.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// History returns the team's feedback in ledger order.
func (s *SQLiteStorage) History(ctx context.Context, teamName string) ([]model.CategorizationFeedback, error) {
	history := []model.CategorizationFeedback{}
	err := s.Scan(ctx, teamName, func(fb model.CategorizationFeedback) error {
		history = append(history, fb)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Scan streams the team's feedback with a cursor, checking ctx between rows.
func (s *SQLiteStorage) Scan(ctx context.Context, teamName string, fn func(model.CategorizationFeedback) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, signal_id, predicted_category, actual_category, timestamp
		FROM feedback
		WHERE team_name = ?
		ORDER BY seq
	`, teamName)
	if err != nil {
		return fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var (
			fb        model.CategorizationFeedback
			predicted sql.NullString
			timestamp string
		)
		if err := rows.Scan(&fb.ID, &fb.SignalID, &predicted, &fb.ActualCategory, &timestamp); err != nil {
			return fmt.Errorf("scan feedback: %w", err)
		}
		fb.PredictedCategory = stringPtr(predicted)
		if fb.Timestamp, err = parseTime(timestamp); err != nil {
			return fmt.Errorf("parse feedback timestamp: %w", err)
		}
		if err := fn(fb); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate feedback: %w", err)
	}
	return nil
}

// Teams lists teams with feedback, sorted by name.
func (s *SQLiteStorage) Teams(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT DISTINCT team_name FROM feedback ORDER BY team_name`)
	if err != nil {
		return nil, fmt.Errorf("list feedback teams: %w", err)
	}
	defer rows.Close()

	teams := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, name)
	}
	return teams, rows.Err()
}
