package cli

import (
	"net/url"

	"github.com/shivanshkc/dagbench/internal/config"
	"github.com/shivanshkc/dagbench/internal/scenario"
)

// validateRootFlags validates the flags of the root command.
func validateRootFlags(cfg *config.Config) string {
	// Base URL is required.
	if cfg.Store.BaseURL == "" {
		return "Base URL is required."
	}

	// Must be a valid absolute URL.
	parsed, err := url.Parse(cfg.Store.BaseURL)
	if err != nil {
		return "Invalid Base URL: " + err.Error()
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "Invalid Base URL: scheme and host are required."
	}

	if cfg.Store.Timeout <= 0 {
		return "Timeout must be greater than 0."
	}

	return ""
}

// validateScenarioFlags validates the flags of the scenario command.
func validateScenarioFlags(kind scenario.Kind, cfg *config.Config) string {
	// Root command flags are used by the scenario command too.
	if message := validateRootFlags(cfg); message != "" {
		return message
	}

	run := cfg.Run

	// At least 1 request should be executed concurrently.
	if run.Concurrency <= 0 {
		return "Concurrency must be greater than 0."
	}

	if run.Duration < 0 {
		return "Duration must not be negative."
	}

	switch cfg.Output.Format {
	case scenario.FormatText, scenario.FormatTable:
	default:
		return "Format must be text or table."
	}

	switch kind {
	case scenario.KindEmit, scenario.KindRead:
		// Count-bounded runs need at least 1 request.
		if run.Duration == 0 && run.Count <= 0 {
			return "Count must be greater than 0 when no duration is given."
		}
	case scenario.KindMixed:
		if run.WriteRatio < 0 || run.WriteRatio > 1 {
			return "Write ratio must be between 0 and 1."
		}
	case scenario.KindDescendants:
		if run.BuildN <= 0 {
			return "Build count must be greater than 0."
		}
	case scenario.KindSSE:
		if run.Subs < 0 {
			return "Subscriber count must not be negative."
		}
	}

	if run.ParentsK < 0 {
		return "Parents per event must not be negative."
	}

	return ""
}
