package web

import (
	"encoding/json"
	"net/http"
	"time"

	"btwatch/pkg/models"
)

// statusData holds data for the status page template
type statusData struct {
	PageTitle string
	Devices   []models.DeviceRecord
	Events    []models.Event
	Now       string
}

// handleRoot renders the status page
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.log.Debug().Str("remote", r.RemoteAddr).Str("url", r.URL.String()).Msg("Request")

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := statusData{
		PageTitle: "btwatch - Presence",
		Devices:   s.engine.Devices(),
		Events:    s.recorder.Events(),
		Now:       time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.template.Execute(w, data); err != nil {
		s.log.Warn().Err(err).Msg("Failed to execute status template")
	}
}

// handleDevices returns the currently present devices as JSON
func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.engine.Devices())
}

// handleEvents returns the recent presence events as JSON
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.recorder.Events()
	if events == nil {
		events = []models.Event{}
	}
	s.writeJSON(w, events)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode JSON response")
	}
}
