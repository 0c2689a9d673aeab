package config

import (
	"fmt"

	"github.com/supportinsights/support-insights/internal/model"
)

// PermissionError represents a permission-related config error
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string // Suggested fix command
	Details string // Additional context
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied (cannot %s config): %s\n", e.Op, e.Path)
	if e.Details != "" {
		msg += e.Details + "\n"
	}
	msg += "💡 Fix: " + e.Fix
	return msg
}

// ConfigNotFoundError represents a missing team file
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s\n\n💡 %s", e.Path, e.Hint)
}

// InvalidConfigError represents a malformed or invalid team configuration
type InvalidConfigError struct {
	Path    string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	msg := "invalid config"
	if e.Path != "" {
		msg += ": " + e.Path
	}
	msg += "\n"
	if e.Message != "" {
		msg += e.Message + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}

// TeamNotFoundError is returned when a command needs a team that has no
// configuration. It matches model.ErrTeamNotFound with errors.Is.
type TeamNotFoundError struct {
	TeamName string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team not found: %s\n\n💡 Run 'support-insights team init %s' to create it", e.TeamName, e.TeamName)
}

func (e *TeamNotFoundError) Is(target error) bool {
	return target == model.ErrTeamNotFound
}
