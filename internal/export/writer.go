package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/supportinsights/support-insights/internal/model"
	"golang.org/x/sys/unix"
)

// WriteJSON streams the dataset document to w. Examples are written as the
// ledger is scanned; the distributions follow once the scan completes.
func (e *Exporter) WriteJSON(ctx context.Context, w io.Writer, teamNames []string, from time.Time) (Distributions, error) {
	teams, err := e.resolveTeams(ctx, teamNames)
	if err != nil {
		return Distributions{}, err
	}

	teamsJSON, err := json.Marshal(teams)
	if err != nil {
		return Distributions{}, fmt.Errorf("encode teams: %w", err)
	}
	header := fmt.Sprintf(`{"generatedAt":%q,"teams":%s,"fromDate":%q,"trainingExamples":[`,
		e.now().UTC().Format(time.RFC3339Nano),
		teamsJSON,
		from.UTC().Format(time.RFC3339Nano),
	)
	if _, err := io.WriteString(w, header); err != nil {
		return Distributions{}, fmt.Errorf("write header: %w", err)
	}

	enc := json.NewEncoder(w)
	first := true
	dist, err := e.Fold(ctx, teams, from, func(ex model.TrainingExample) error {
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return fmt.Errorf("write separator: %w", err)
			}
		}
		first = false
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode example: %w", err)
		}
		return nil
	})
	if err != nil {
		return dist, err
	}

	catJSON, err := json.Marshal(dist.Category)
	if err != nil {
		return dist, fmt.Errorf("encode category distribution: %w", err)
	}
	teamJSON, err := json.Marshal(dist.Team)
	if err != nil {
		return dist, fmt.Errorf("encode team distribution: %w", err)
	}
	footer := fmt.Sprintf(`],"categoryDistribution":%s,"teamDistribution":%s}`+"\n", catJSON, teamJSON)
	if _, err := io.WriteString(w, footer); err != nil {
		return dist, fmt.Errorf("write footer: %w", err)
	}
	return dist, nil
}

// WriteJSONL streams one training example per line, without the dataset
// envelope.
func (e *Exporter) WriteJSONL(ctx context.Context, w io.Writer, teamNames []string, from time.Time) (Distributions, error) {
	teams, err := e.resolveTeams(ctx, teamNames)
	if err != nil {
		return Distributions{}, err
	}
	enc := json.NewEncoder(w)
	return e.Fold(ctx, teams, from, func(ex model.TrainingExample) error {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode example: %w", err)
		}
		return nil
	})
}

// WriteFile exports the dataset document to path while holding an exclusive
// lock on path+".lock". The document is written to a temporary file and
// renamed into place.
func (e *Exporter) WriteFile(ctx context.Context, path string, teamNames []string, from time.Time) (Distributions, error) {
	return writeLocked(path, func(w io.Writer) (Distributions, error) {
		return e.WriteJSON(ctx, w, teamNames, from)
	})
}

// WriteJSONLFile is WriteFile for the line-delimited format.
func (e *Exporter) WriteJSONLFile(ctx context.Context, path string, teamNames []string, from time.Time) (Distributions, error) {
	return writeLocked(path, func(w io.Writer) (Distributions, error) {
		return e.WriteJSONL(ctx, w, teamNames, from)
	})
}

func writeLocked(path string, write func(io.Writer) (Distributions, error)) (Distributions, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Distributions{}, fmt.Errorf("create export directory: %w", err)
	}

	lockFile, err := acquireFileLock(path)
	if err != nil {
		return Distributions{}, err
	}
	defer releaseFileLock(lockFile)

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return Distributions{}, fmt.Errorf("create export file: %w", err)
	}

	dist, err := write(f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close export file: %w", closeErr)
	}
	if err != nil {
		os.Remove(tmpPath)
		return dist, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return dist, fmt.Errorf("move export into place: %w", err)
	}
	return dist, nil
}

// acquireFileLock takes a non-blocking exclusive lock next to path.
func acquireFileLock(path string) (*os.File, error) {
	lockPath := path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("failed to acquire lock (another export in progress?): %w", err)
	}
	return lockFile, nil
}

// releaseFileLock releases the lock and removes the lock file.
func releaseFileLock(lockFile *os.File) error {
	if lockFile == nil {
		return nil
	}
	lockPath := lockFile.Name()
	unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	lockFile.Close()
	return os.Remove(lockPath)
}
