package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", false)

	logger.Info().Msg("hidden")
	logger.Warn().Str("sheet", "Renang Dasar").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "Renang Dasar", line["sheet"])
	assert.Equal(t, "shown", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriterVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "error", true)

	logger.Debug().Msg("details")
	assert.Contains(t, buf.String(), "details")
	assert.NotContains(t, buf.String(), "{")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
