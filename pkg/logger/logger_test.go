package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/bothive/internal/config"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, Setup(config.LogConfig{Level: "warn", Format: "json"}, &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("session_id", "abc").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "abc", line["session_id"])
	assert.Equal(t, "shown", line["message"])
}

func TestSetupRejectsBadInput(t *testing.T) {
	assert.Error(t, Setup(config.LogConfig{Level: "loud", Format: "json"}, nil))
	assert.Error(t, Setup(config.LogConfig{Level: "info", Format: "xml"}, nil))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
