package otel

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/applog"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	s := SettingsFromEnv()
	assert.True(t, s.Disabled)
	assert.Equal(t, "whistlebox", s.ServiceName)
	assert.Equal(t, "grpc", s.Protocol)
	assert.Equal(t, "collector:4317", s.Endpoint)
	assert.Equal(t, "parentbased_traceidratio", s.Sampler)
}

func TestInitDisabled(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Settings{Disabled: true}, applog.NewWriter(&buf, "otel", time.UTC))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tracing_configured", entry["event"])
	assert.Equal(t, false, entry["tracing_enabled"])
}

func TestInitUnsupportedProtocolDegrades(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Settings{ServiceName: "test", Protocol: "carrier-pigeon"}, applog.NewWriter(&buf, "otel", time.UTC))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "tracing_init_failed")
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"traceidratio", "junk", "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, newSampler(tt.name, tt.arg).Description())
		})
	}

	assert.Contains(t, newSampler("unknown", "").Description(), "ParentBased")
}
