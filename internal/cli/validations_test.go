package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shivanshkc/dagbench/internal/config"
	"github.com/shivanshkc/dagbench/internal/scenario"
)

func validConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{BaseURL: "http://127.0.0.1:7777", Timeout: time.Second},
		Run: config.RunConfig{
			Concurrency: 10,
			Count:       100,
			ParentsK:    1,
			WriteRatio:  0.2,
			BuildN:      10,
			Subs:        5,
		},
		Output: config.OutputConfig{Format: "text"},
	}
}

func TestValidateScenarioFlags(t *testing.T) {
	testCases := []struct {
		name     string
		kind     scenario.Kind
		mutate   func(cfg *config.Config)
		expected string
	}{
		{name: "Valid", kind: scenario.KindEmit, mutate: func(cfg *config.Config) {}},
		{
			name:     "Missing Base URL",
			kind:     scenario.KindEmit,
			mutate:   func(cfg *config.Config) { cfg.Store.BaseURL = "" },
			expected: "Base URL is required.",
		},
		{
			name:     "Relative Base URL",
			kind:     scenario.KindRead,
			mutate:   func(cfg *config.Config) { cfg.Store.BaseURL = "localhost" },
			expected: "Invalid Base URL: scheme and host are required.",
		},
		{
			name:     "Zero Timeout",
			kind:     scenario.KindRead,
			mutate:   func(cfg *config.Config) { cfg.Store.Timeout = 0 },
			expected: "Timeout must be greater than 0.",
		},
		{
			name:     "Zero Concurrency",
			kind:     scenario.KindEmit,
			mutate:   func(cfg *config.Config) { cfg.Run.Concurrency = 0 },
			expected: "Concurrency must be greater than 0.",
		},
		{
			name:     "No Count Or Duration",
			kind:     scenario.KindRead,
			mutate:   func(cfg *config.Config) { cfg.Run.Count = 0 },
			expected: "Count must be greater than 0 when no duration is given.",
		},
		{
			name: "Duration Without Count",
			kind: scenario.KindEmit,
			mutate: func(cfg *config.Config) {
				cfg.Run.Count = 0
				cfg.Run.Duration = time.Second
			},
		},
		{
			name:     "Mixed Ignores Count",
			kind:     scenario.KindMixed,
			mutate:   func(cfg *config.Config) { cfg.Run.Count = 0 },
			expected: "",
		},
		{
			name:     "Write Ratio Out Of Range",
			kind:     scenario.KindMixed,
			mutate:   func(cfg *config.Config) { cfg.Run.WriteRatio = 1.5 },
			expected: "Write ratio must be between 0 and 1.",
		},
		{
			name:     "No Build",
			kind:     scenario.KindDescendants,
			mutate:   func(cfg *config.Config) { cfg.Run.BuildN = 0 },
			expected: "Build count must be greater than 0.",
		},
		{
			name:     "Unknown Format",
			kind:     scenario.KindSSE,
			mutate:   func(cfg *config.Config) { cfg.Output.Format = "csv" },
			expected: "Format must be text or table.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Equal(t, tc.expected, validateScenarioFlags(tc.kind, cfg))
		})
	}
}
