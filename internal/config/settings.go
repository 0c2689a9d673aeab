package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// SUPPORT_INSIGHTS_LOG_LEVEL=debug or SUPPORT_INSIGHTS_PATHS_DB=/tmp/x.db.
const EnvPrefix = "SUPPORT_INSIGHTS_"

// Settings is the application configuration.
//
//	paths:
//	  teams_dir: ~/.support-insights/teams
//	  db: ~/.support-insights/insights.db
//	  index: ~/.support-insights/index.bleve
//	  export_dir: ~/.support-insights/exports
//	log:
//	  level: info
//	  format: console
//	review:
//	  threshold: 0.7
//	  policy: weighted-score
//	export:
//	  schedule: "0 6 * * 1"
//	  lookback_days: 30
//	sources:
//	  rate_limit: 5
//	slack:
//	  token: xoxb-...
//	github:
//	  token: ghp_...
type Settings struct {
	Paths   PathSettings   `koanf:"paths"`
	Log     LogSettings    `koanf:"log"`
	Review  ReviewSettings `koanf:"review"`
	Export  ExportSettings `koanf:"export"`
	Sources SourceSettings `koanf:"sources"`
	Slack   TokenSettings  `koanf:"slack"`
	GitHub  TokenSettings  `koanf:"github"`
}

// PathSettings locates on-disk state.
type PathSettings struct {
	TeamsDir  string `koanf:"teams_dir"`
	DB        string `koanf:"db"`
	Index     string `koanf:"index"`
	ExportDir string `koanf:"export_dir"`
}

// LogSettings configures the zap logger.
type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ReviewSettings configures the categorization engine.
type ReviewSettings struct {
	Threshold float64 `koanf:"threshold"`
	Policy    string  `koanf:"policy"`
}

// ExportSettings configures scheduled training exports.
type ExportSettings struct {
	Schedule     string `koanf:"schedule"`
	LookbackDays int    `koanf:"lookback_days"`
}

// SourceSettings configures API-backed sources.
type SourceSettings struct {
	RateLimit float64 `koanf:"rate_limit"`
}

// TokenSettings holds an API token.
type TokenSettings struct {
	Token string `koanf:"token"`
}

// DefaultSettingsPath returns ~/.support-insights/config.yaml.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".support-insights", "config.yaml"), nil
}

// LoadSettings reads settings from path (default path when empty), then
// applies environment overrides and defaults. A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if path == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if f, err := os.Open(path); err == nil {
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, &InvalidConfigError{
				Path:    path,
				Message: fmt.Sprintf("YAML parse error: %v", err),
				Hint:    "Check indentation and quoting in the settings file",
			}
		}
	} else if os.IsPermission(err) {
		return nil, &PermissionError{
			Path:    path,
			Op:      "read",
			Fix:     getReadPermissionFix(path),
			Details: getPermissionDetails(path),
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open settings file: %w", err)
	}

	// SUPPORT_INSIGHTS_PATHS_TEAMS_DIR -> paths.teams_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		section, field, ok := strings.Cut(lower, "_")
		if !ok {
			return lower
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if err := s.applyDefaults(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) applyDefaults() error {
	needsHome := s.Paths.TeamsDir == "" || s.Paths.DB == "" || s.Paths.Index == "" || s.Paths.ExportDir == ""
	if needsHome {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		base := filepath.Join(home, ".support-insights")
		if s.Paths.TeamsDir == "" {
			s.Paths.TeamsDir = filepath.Join(base, "teams")
		}
		if s.Paths.DB == "" {
			s.Paths.DB = filepath.Join(base, "insights.db")
		}
		if s.Paths.Index == "" {
			s.Paths.Index = filepath.Join(base, "index.bleve")
		}
		if s.Paths.ExportDir == "" {
			s.Paths.ExportDir = filepath.Join(base, "exports")
		}
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "console"
	}
	if s.Review.Threshold == 0 {
		s.Review.Threshold = 0.7
	}
	if s.Review.Policy == "" {
		s.Review.Policy = "weighted-score"
	}
	if s.Export.Schedule == "" {
		s.Export.Schedule = "0 6 * * 1"
	}
	if s.Export.LookbackDays == 0 {
		s.Export.LookbackDays = 30
	}
	if s.Sources.RateLimit == 0 {
		s.Sources.RateLimit = 5
	}
	return nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	var problems []string
	if s.Review.Threshold < 0 || s.Review.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("review.threshold %v must be within [0, 1]", s.Review.Threshold))
	}
	switch s.Review.Policy {
	case "weighted-score", "first-match":
	default:
		problems = append(problems, fmt.Sprintf("review.policy %q must be weighted-score or first-match", s.Review.Policy))
	}
	switch s.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be json or console", s.Log.Format))
	}
	if s.Export.LookbackDays < 0 {
		problems = append(problems, "export.lookback_days must not be negative")
	}
	if s.Sources.RateLimit < 0 {
		problems = append(problems, "sources.rate_limit must not be negative")
	}
	if len(problems) > 0 {
		return &InvalidConfigError{
			Message: strings.Join(problems, "; "),
			Hint:    "Fix the settings file or the SUPPORT_INSIGHTS_* environment variables",
		}
	}
	return nil
}
