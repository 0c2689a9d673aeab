package config

import (
	"strings"
	"testing"

	"github.com/supportinsights/support-insights/internal/model"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.TeamConfiguration)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*model.TeamConfiguration) {},
		},
		{
			name:    "empty team name",
			mutate:  func(c *model.TeamConfiguration) { c.TeamName = " -- " },
			wantErr: "team name",
		},
		{
			name: "empty category name",
			mutate: func(c *model.TeamConfiguration) {
				c.Categories = append(c.Categories, model.CategoryConfiguration{Name: "  "})
			},
			wantErr: "empty name",
		},
		{
			name: "duplicate category ignoring case",
			mutate: func(c *model.TeamConfiguration) {
				c.Categories = append(c.Categories, model.CategoryConfiguration{Name: "CERTIFICATE"})
			},
			wantErr: "duplicate",
		},
		{
			name:    "negative priority",
			mutate:  func(c *model.TeamConfiguration) { c.Categories[0].Priority = -1 },
			wantErr: "negative priority",
		},
		{
			name: "empty source type",
			mutate: func(c *model.TeamConfiguration) {
				c.DataSources = append(c.DataSources, model.DataSourceConfiguration{IsEnabled: true})
			},
			wantErr: "sourceType",
		},
		{
			name: "unknown high priority category",
			mutate: func(c *model.TeamConfiguration) {
				c.TriageSettings.HighPriorityCategories = []string{"Payroll"}
			},
			wantErr: "Payroll",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sampleTeam()
			tt.mutate(&cfg)
			err := Validate(cfg)

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestToSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"accounting", "accounting"},
		{"Accounting", "accounting"},
		{"Bank Feeds Team", "bank-feeds-team"},
		{"payroll_ops", "payroll-ops"},
		{"CustomerSuccess", "customer-success"},
		{"  spaced  out  ", "spaced-out"},
		{"team/../../etc", "team-etc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToSlug(tt.input); got != tt.expected {
				t.Errorf("ToSlug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
