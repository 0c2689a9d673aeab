package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/model"
)

const signalColumns = `id, title, description, source, timestamp, category, manual_score,
	confidence, needs_review, resolved_at, triaged`

// SaveSignals upserts signals in one transaction and returns how many were written.
func (s *SQLiteStorage) SaveSignals(ctx context.Context, teamName string, signals []model.SupportSignal) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	if len(signals) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signals (team_name, id, title, description, source, timestamp, category,
			manual_score, confidence, needs_review, resolved_at, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(team_name, id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			source = excluded.source,
			timestamp = excluded.timestamp,
			resolved_at = excluded.resolved_at,
			category = CASE WHEN signals.triaged = 1 THEN signals.category ELSE excluded.category END,
			confidence = CASE WHEN signals.triaged = 1 THEN signals.confidence ELSE excluded.confidence END,
			needs_review = CASE WHEN signals.triaged = 1 THEN signals.needs_review ELSE excluded.needs_review END
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare signal upsert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	written := 0
	for _, sig := range signals {
		if sig.ID == "" {
			s.logger.Warn("skipping signal without id", zap.String("team", teamName), zap.String("title", sig.Title))
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			teamName,
			sig.ID,
			sig.Title,
			sig.Description,
			sig.Source,
			formatTime(sig.Timestamp),
			nullString(sig.Category),
			nullFloat(sig.ManualScore),
			sig.Confidence,
			boolToInt(sig.NeedsReview),
			nullTime(sig.ResolvedAt),
			now,
		); err != nil {
			return 0, fmt.Errorf("upsert signal %s: %w", sig.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit signals: %w", err)
	}
	return written, nil
}

// GetSignal loads one signal.
func (s *SQLiteStorage) GetSignal(ctx context.Context, teamName, signalID string) (model.SupportSignal, bool, error) {
	db, err := s.handle()
	if err != nil {
		return model.SupportSignal{}, false, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT `+signalColumns+` FROM signals WHERE team_name = ? AND id = ?`,
		teamName, signalID,
	)
	sig, err := scanSignal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SupportSignal{}, false, nil
	}
	if err != nil {
		return model.SupportSignal{}, false, fmt.Errorf("get signal %s: %w", signalID, err)
	}
	return sig, true, nil
}

// ListSignals returns a team's signals ordered by timestamp, then id.
func (s *SQLiteStorage) ListSignals(ctx context.Context, teamName string, q SignalQuery) ([]model.SupportSignal, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var where strings.Builder
	args := []any{teamName}
	where.WriteString("team_name = ?")
	if !q.Since.IsZero() {
		where.WriteString(" AND timestamp >= ?")
		args = append(args, formatTime(q.Since))
	}
	if !q.Until.IsZero() {
		where.WriteString(" AND timestamp <= ?")
		args = append(args, formatTime(q.Until))
	}
	query := `SELECT ` + signalColumns + ` FROM signals WHERE ` + where.String() + ` ORDER BY timestamp, id`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	signals := []model.SupportSignal{}
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			s.logger.Warn("failed to scan signal row", zap.Error(err))
			continue
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return signals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row rowScanner) (model.SupportSignal, error) {
	var (
		sig         model.SupportSignal
		timestamp   string
		category    sql.NullString
		manualScore sql.NullFloat64
		needsReview int
		resolvedAt  sql.NullString
		triaged     int
	)
	if err := row.Scan(
		&sig.ID,
		&sig.Title,
		&sig.Description,
		&sig.Source,
		&timestamp,
		&category,
		&manualScore,
		&sig.Confidence,
		&needsReview,
		&resolvedAt,
		&triaged,
	); err != nil {
		return model.SupportSignal{}, err
	}

	ts, err := parseTime(timestamp)
	if err != nil {
		return model.SupportSignal{}, fmt.Errorf("parse timestamp: %w", err)
	}
	sig.Timestamp = ts
	sig.Category = stringPtr(category)
	sig.ManualScore = floatPtr(manualScore)
	sig.NeedsReview = needsReview == 1
	sig.Triaged = triaged == 1
	if resolvedAt.Valid {
		t, err := parseTime(resolvedAt.String)
		if err != nil {
			return model.SupportSignal{}, fmt.Errorf("parse resolved_at: %w", err)
		}
		sig.ResolvedAt = &t
	}
	return sig, nil
}
