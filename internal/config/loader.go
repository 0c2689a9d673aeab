package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/supportinsights/support-insights/internal/model"
)

// LoadFrom reads one team configuration with enhanced error handling
func LoadFrom(path string) (model.TeamConfiguration, error) {
	// Check file existence first
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return model.TeamConfiguration{}, &ConfigNotFoundError{
				Path: path,
				Hint: "Run 'support-insights team init <team>' to create configuration",
			}
		}
		return model.TeamConfiguration{}, fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return model.TeamConfiguration{}, &PermissionError{
				Path:    path,
				Op:      "read",
				Fix:     getReadPermissionFix(path),
				Details: getPermissionDetails(path),
			}
		}
		return model.TeamConfiguration{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg model.TeamConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.TeamConfiguration{}, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("JSON parse error: %v", err),
			Hint:    "Restore from .bak file if available",
		}
	}

	normalize(&cfg)
	return cfg, nil
}

// normalize replaces nil collections so saved files round-trip unchanged.
func normalize(cfg *model.TeamConfiguration) {
	if cfg.Categories == nil {
		cfg.Categories = []model.CategoryConfiguration{}
	}
	for i := range cfg.Categories {
		if cfg.Categories[i].Keywords == nil {
			cfg.Categories[i].Keywords = []string{}
		}
	}
	if cfg.DataSources == nil {
		cfg.DataSources = []model.DataSourceConfiguration{}
	}
	if cfg.TriageSettings.HighPriorityCategories == nil {
		cfg.TriageSettings.HighPriorityCategories = []string{}
	}
	if cfg.TriageSettings.CategoryDefaultScores == nil {
		cfg.TriageSettings.CategoryDefaultScores = map[string]float64{}
	}
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}

// getPermissionDetails checks file ownership and permissions
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
