package web

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"btwatch/internal/config"
	"btwatch/internal/sink"
	"btwatch/internal/track"
)

// Server represents the HTTP status server
type Server struct {
	cfg      *config.Config
	engine   *track.Engine
	recorder *sink.Recorder
	template *template.Template
	mux      *http.ServeMux
	log      zerolog.Logger
}

// NewServer creates a new status server
func NewServer(cfg *config.Config, engine *track.Engine, recorder *sink.Recorder, log zerolog.Logger) *Server {
	server := &Server{
		cfg:      cfg,
		engine:   engine,
		recorder: recorder,
		log:      log.With().Str("component", "web").Logger(),
		mux:      http.NewServeMux(),
	}

	server.template = template.Must(template.New("status").Parse(statusTemplate))
	server.setupRoutes()

	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return http.ListenAndServe(s.cfg.HTTPListen, s.mux)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/api/devices", s.handleDevices)
	s.mux.HandleFunc("/api/events", s.handleEvents)
}
