package model

import "errors"

var (
	// ErrTeamNotFound is returned when a caller needs a team that has no configuration.
	ErrTeamNotFound = errors.New("team not found")

	// ErrSignalNotFound is returned when feedback references an unknown signal.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrInvalidCategory is returned when triage names a category the team does not define.
	ErrInvalidCategory = errors.New("category not defined for team")

	// ErrUnknownSourceType is returned when no provider is registered for a source type.
	ErrUnknownSourceType = errors.New("unknown source type")
)
