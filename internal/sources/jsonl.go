package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/supportinsights/support-insights/internal/model"
)

const maxJSONLLine = 1 << 20

// JSONLSource reads one JSON-encoded signal per line.
type JSONLSource struct {
	path   string
	logger *zap.Logger
}

// NewJSONLSource creates a JSONL source for path.
func NewJSONLSource(path string, logger *zap.Logger) *JSONLSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONLSource{path: path, logger: logger.Named("jsonl")}
}

// NewJSONLFromConfig is the registry factory. It requires the "path" setting.
func NewJSONLFromConfig(cfg model.DataSourceConfiguration, opts Options) (Source, error) {
	path, err := requireSetting(cfg, "path")
	if err != nil {
		return nil, err
	}
	return NewJSONLSource(path, opts.logger()), nil
}

// Name returns "jsonl".
func (s *JSONLSource) Name() string {
	return "jsonl"
}

// Signals streams the file's lines. Blank lines are ignored.
func (s *JSONLSource) Signals(ctx context.Context) iter.Seq2[model.SupportSignal, error] {
	return func(yield func(model.SupportSignal, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(model.SupportSignal{}, fmt.Errorf("open jsonl: %w", err))
			return
		}
		defer f.Close()

		r := bufio.NewReaderSize(f, 64*1024)
		line := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(model.SupportSignal{}, err)
				return
			}
			raw, oversize, err := readLine(r, maxJSONLLine)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(model.SupportSignal{}, fmt.Errorf("read jsonl: %w", err))
				return
			}
			line++
			if oversize {
				s.logger.Warn("skipping oversized jsonl line", zap.String("path", s.path), zap.Int("line", line), zap.Int("limit", maxJSONLLine))
				continue
			}
			text := strings.TrimSpace(string(raw))
			if text == "" {
				continue
			}

			sig, err := s.parseLine(text)
			if err != nil {
				s.logger.Warn("skipping malformed jsonl line", zap.String("path", s.path), zap.Int("line", line), zap.Error(err))
				continue
			}
			if !yield(sig, nil) {
				return
			}
		}
	}
}

// readLine returns the next line, terminator included. A line longer than
// limit bytes is consumed in full and reported as oversize with no content. io.EOF
// is returned only once nothing is left to read.
func readLine(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var (
		line     []byte
		read     int
		oversize bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		read += len(chunk)
		if !oversize {
			if len(line)+len(chunk) > limit {
				oversize = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			return line, oversize, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if read == 0 {
				return nil, false, io.EOF
			}
			return line, oversize, nil
		default:
			return nil, false, err
		}
	}
}

func (s *JSONLSource) parseLine(text string) (model.SupportSignal, error) {
	var sig model.SupportSignal
	if err := json.Unmarshal([]byte(text), &sig); err != nil {
		return model.SupportSignal{}, err
	}
	switch {
	case sig.ID == "":
		return model.SupportSignal{}, errors.New("missing id")
	case strings.TrimSpace(sig.Title) == "":
		return model.SupportSignal{}, errors.New("missing title")
	case sig.Timestamp.IsZero():
		return model.SupportSignal{}, errors.New("missing timestamp")
	}
	if sig.Source == "" {
		sig.Source = s.Name()
	}
	return sig, nil
}
