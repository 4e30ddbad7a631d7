package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{raw: "", want: zerolog.InfoLevel},
		{raw: "debug", want: zerolog.DebugLevel},
		{raw: " WARN ", want: zerolog.WarnLevel},
		{raw: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv(EnvLogLevel, tt.raw)
			assert.Equal(t, tt.want, GetLogLevel())
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, zerolog.WarnLevel)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "factory").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"component":"factory"`)
	assert.Contains(t, out, `"time"`)
}
