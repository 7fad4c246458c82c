package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestJSONLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "clinic-api", "prod", "debug")
	log.Debug().Str("booking_id", "BOOK_1").Msg("booking created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "clinic-api", line["service"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "BOOK_1", line["booking_id"])
	assert.Contains(t, line, "time")
	assert.Contains(t, line, "caller")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "clinic-api", "prod", "warn")
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log = NewWithWriter(&buf, "clinic-api", "prod", "nonsense")
	log.Info().Msg("shown")
	assert.NotZero(t, buf.Len(), "unknown levels fall back to info")
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "clinic-api", "dev", "info")
	log.Info().Msg("listening")

	assert.Contains(t, buf.String(), "listening")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestFromContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, "clinic-api", "prod", "info")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log := FromContext(ctx, base)
	log.Info().Msg("traced")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, sc.TraceID().String(), line["trace_id"])
	assert.Equal(t, sc.SpanID().String(), line["span_id"])

	buf.Reset()
	plain := FromContext(context.Background(), base)
	plain.Info().Msg("plain")
	assert.NotContains(t, buf.String(), "trace_id")
}
