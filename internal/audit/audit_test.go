// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/skillswap/internal/log"
)

func capture(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewLoggerWith(zerolog.New(&buf)), &buf
}

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger())
}

func TestLogger_Transition(t *testing.T) {
	l, buf := capture(t)
	ctx := log.ContextWithRequestID(context.Background(), "req-1")

	l.Transition(ctx, "alice", "s1", "approve_completion", "completion_requested", "completed")

	entry := decodeLast(t, buf)
	assert.Equal(t, "audit", entry["log_type"])
	assert.Equal(t, string(EventSessionTransition), entry["event_type"])
	assert.Equal(t, "alice", entry["actor"])
	assert.Equal(t, "session/s1", entry["resource"])
	assert.Equal(t, "req-1", entry[log.FieldRequestID])
	assert.Equal(t, "completion_requested", entry[log.FieldOldPhase])
	assert.Equal(t, "completed", entry[log.FieldNewPhase])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLogger_LogFromContextFillsActor(t *testing.T) {
	l, buf := capture(t)
	ctx := log.ContextWithActorID(context.Background(), "bob")

	l.Denied(ctx, "", "s1", "finalize_cancellation", "not_initiator")

	entry := decodeLast(t, buf)
	assert.Equal(t, "bob", entry["actor"])
	assert.Equal(t, "denied", entry["result"])
	assert.Equal(t, "not_initiator", entry["code"])
}

func TestLogger_ConfigReloadResult(t *testing.T) {
	l, buf := capture(t)

	l.ConfigReload("system", "success", nil)
	assert.Equal(t, string(EventConfigReload), decodeLast(t, buf)["event_type"])

	l.ConfigReload("system", "failure", map[string]string{"error": "bad yaml"})
	entry := decodeLast(t, buf)
	assert.Equal(t, string(EventConfigReloadError), entry["event_type"])
	assert.Equal(t, "bad yaml", entry["error"])
}
