package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		" Warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"off":      zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, parseLevel(input), "level %q", input)
	}
}

func TestSetupWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")

	l := Get("scenario")
	l.Info().Msg("hidden")
	l.Warn().Int("n", 3).Msg("shown")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"scenario"`)
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"n":3`)
}

func TestSetupWriter_Console(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "console")

	l := Get("watch")
	l.Info().Msg("subscribed")

	assert.Contains(t, buf.String(), "subscribed")
	assert.NotContains(t, buf.String(), `"message"`)
}
