package applog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "service", time.UTC)

	l.Info("tip_created", map[string]any{"internaltip_id": "it1"})
	l.Error("sweep_failed", errors.New("boom"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "tip_created", first["event"])
	assert.Equal(t, "service", first["component"])
	assert.Equal(t, "it1", first["internaltip_id"])
	assert.NotEmpty(t, first["ts"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error_message"])
}

func TestLogger_FieldsCannotOverrideLevel(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "jobs", nil).Warn("x", map[string]any{"level": "debug"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
}

func TestLogger_NilIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("x", nil) })
}
