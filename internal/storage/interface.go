/*
Package storage implements the persistent signal store and feedback ledger.

Signals and feedback live in one SQLite database (modernc.org/sqlite, a pure
Go, CGo-free driver). The schema is managed with goose migrations embedded in
the binary. The default location is ~/.support-insights/insights.db.

The feedback table is append-only. Its autoincrement sequence is the ledger
order, and appends for one team are serialized by a per-team lock so entries
from different teams never wait on each other in Go code.
*/
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/supportinsights/support-insights/internal/ledger"
	"github.com/supportinsights/support-insights/internal/model"
)

// SignalQuery narrows ListSignals. Zero values mean no bound.
type SignalQuery struct {
	Since time.Time
	Until time.Time
	Limit int
}

// Storage defines the persistent operations used by the insights service.
type Storage interface {
	ledger.Ledger

	// Init opens the database and runs migrations.
	Init() error

	// SaveSignals upserts signals for a team. Triage decisions already stored
	// for a signal survive re-ingestion.
	SaveSignals(ctx context.Context, teamName string, signals []model.SupportSignal) (int, error)

	// GetSignal returns one signal; ok is false when it does not exist.
	GetSignal(ctx context.Context, teamName, signalID string) (model.SupportSignal, bool, error)

	// ListSignals returns a team's signals ordered by timestamp.
	ListSignals(ctx context.Context, teamName string, q SignalQuery) ([]model.SupportSignal, error)

	// RecordTriage overwrites a signal's category and manual score and
	// appends fb to the feedback ledger in one transaction.
	RecordTriage(ctx context.Context, teamName string, fb model.CategorizationFeedback, manualScore *float64) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	logger   *zap.Logger
	mu       sync.RWMutex
	initOnce sync.Once
	initErr  error

	// teamLocks holds one *sync.Mutex per team for feedback appends.
	teamLocks sync.Map
}

// NewStorage creates a storage handle for dbPath. Call Init before use.
func NewStorage(dbPath string, logger *zap.Logger) *SQLiteStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStorage{
		dbPath: dbPath,
		logger: logger.Named("storage"),
	}
}

// Open creates and initializes a storage in one step.
func Open(dbPath string, logger *zap.Logger) (*SQLiteStorage, error) {
	s := NewStorage(dbPath, logger)
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init initializes the database and runs migrations. It is safe to call more
// than once; only the first call does any work.
func (s *SQLiteStorage) Init() error {
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			s.initErr = fmt.Errorf("failed to create db directory: %w", err)
			return
		}

		dsn := s.dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			s.initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}

		if err := db.Ping(); err != nil {
			db.Close()
			s.initErr = fmt.Errorf("failed to ping database: %w", err)
			return
		}

		if err := migrate(db); err != nil {
			db.Close()
			s.initErr = fmt.Errorf("failed to run migrations: %w", err)
			return
		}

		s.db = db
		s.logger.Debug("storage ready", zap.String("path", s.dbPath))
	})
	return s.initErr
}

// handle returns the open database or ErrClosed.
func (s *SQLiteStorage) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// teamLock returns the append lock for teamName.
func (s *SQLiteStorage) teamLock(teamName string) *sync.Mutex {
	lock, _ := s.teamLocks.LoadOrStore(teamName, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
