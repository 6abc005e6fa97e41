package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btwatch/pkg/models"
)

func testEvent(kind, mac string) models.Event {
	return models.Event{
		Kind:      kind,
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		MAC:       mac,
		Name:      "Sensor",
		RSSI:      -55,
	}
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	s, err := NewFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:01")))
	require.NoError(t, s.Write(testEvent(models.EventLost, "AA:BB:CC:DD:EE:01")))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj))
		lines = append(lines, obj)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "NEW", lines[0]["event"])
	assert.Equal(t, "AA:BB:CC:DD:EE:01", lines[0]["mac"])
	assert.Equal(t, "Sensor", lines[0]["name"])
	assert.Equal(t, float64(-55), lines[0]["rssi_dBm"])
	assert.Equal(t, "2026-08-30T12:00:00Z", lines[0]["timestamp"])
	assert.Equal(t, "LOST", lines[1]["event"])
}

func TestFileSinkAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	s, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:01")))
	require.NoError(t, s.Close())

	// Reopening must append, never truncate
	s, err = NewFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:02")))
	require.NoError(t, s.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(content, []byte("\n")))
}

func TestStdoutSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	require.NoError(t, s.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:01")))
	assert.Equal(t, "NEW:AA:BB:CC:DD:EE:01:Sensor:-55\n", buf.String())
}

func TestStdoutSinkSkipsObservations(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	require.NoError(t, s.Write(testEvent(models.EventObservation, "AA:BB:CC:DD:EE:01")))
	assert.Empty(t, buf.String())
}

type failingSink struct {
	writes int
}

func (f *failingSink) Write(models.Event) error {
	f.writes++
	return errors.New("disk full")
}

func (f *failingSink) Close() error { return nil }

func TestMultiSinkIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	failing := &failingSink{}
	rec := NewRecorder()

	m := NewMulti(zerolog.Nop(), failing, NewWriterSink(&buf), rec)

	// One channel failing must not suppress the others
	require.NoError(t, m.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:01")))
	require.NoError(t, m.Write(testEvent(models.EventLost, "AA:BB:CC:DD:EE:01")))

	assert.Equal(t, 2, failing.writes)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Len(t, rec.Events(), 2)
}

func TestRecorderCapsBuffer(t *testing.T) {
	r := NewRecorder()

	for i := 0; i < maxRecentEvents+10; i++ {
		require.NoError(t, r.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:01")))
	}

	assert.Len(t, r.Events(), maxRecentEvents)
}

func TestRecorderSkipsObservations(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.Write(testEvent(models.EventObservation, "AA:BB:CC:DD:EE:01")))
	require.NoError(t, r.Write(testEvent(models.EventNew, "AA:BB:CC:DD:EE:01")))

	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventNew, events[0].Kind)
}
