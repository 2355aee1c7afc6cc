package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_EmitLogsEventTypeAndModule(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	m := NewManager(log)

	m.Emit(SimulationStarted, "simulate", map[string]interface{}{"runId": "abc"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, string(SimulationStarted), entry["event_type"])
	assert.Equal(t, "simulate", entry["module"])
}

func TestManager_EmitErrorWrapsErrorAsGenericEvent(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	m := NewManager(log)

	m.EmitError("provider", errors.New("upstream down"), map[string]interface{}{"symbol": "AAPL"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, string(ErrorOccurred), entry["event_type"])

	inner, ok := entry["event"].(map[string]interface{})
	require.True(t, ok, "RawJSON embeds the event as a nested object, not a quoted string")
	data := inner["data"].(map[string]interface{})
	assert.Equal(t, "upstream down", data["error"])
}
