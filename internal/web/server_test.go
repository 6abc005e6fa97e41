package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btwatch/internal/config"
	"btwatch/internal/sink"
	"btwatch/internal/track"
	"btwatch/pkg/models"
)

type emptySource struct{}

func (emptySource) Scan(context.Context) ([]models.Sighting, error) { return nil, nil }

func newTestServer(t *testing.T) (*Server, *sink.Recorder) {
	t.Helper()

	cfg := &config.Config{
		ScanInterval:    time.Second,
		PresenceTimeout: 5 * time.Second,
		MinRSSI:         -100,
		LogPath:         "unused",
		HTTPListen:      "127.0.0.1:0",
	}

	recorder := sink.NewRecorder()
	engine := track.New(cfg, emptySource{}, recorder, zerolog.Nop())

	return NewServer(cfg, engine, recorder, zerolog.Nop()), recorder
}

func TestHandleDevicesEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestHandleEvents(t *testing.T) {
	s, recorder := newTestServer(t)

	require.NoError(t, recorder.Write(models.Event{
		Kind:      models.EventNew,
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		MAC:       "AA:BB:CC:DD:EE:01",
		Name:      "Sensor",
		RSSI:      -55,
	}))

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var events []models.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", events[0].MAC)
}

func TestHandleRootRendersStatusPage(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Present devices")
}

func TestHandleRootUnknownPath(t *testing.T) {
	s, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
