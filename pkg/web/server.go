package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

//go:embed templates
var content embed.FS

// ServerConfig holds configuration for the web server.
type ServerConfig struct {
	Host   string // interface to listen on, all interfaces if empty
	Port   int    // port to listen on
	Server string // probed notebook server, token redacted
	Engine string // browser engine name
}

// Server provides the HTTP dashboard for the current run.
type Server struct {
	cfg  ServerConfig
	run  atomic.Pointer[Run]
	tmpl *template.Template
	srv  *http.Server
}

// NewServer creates a new web server showing run.
func NewServer(cfg ServerConfig, run *Run) (*Server, error) {
	tmpl, err := template.ParseFS(content, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	s := &Server{cfg: cfg, tmpl: tmpl}
	s.run.Store(run)
	return s, nil
}

// SetRun switches the dashboard to a new run, used by watch mode.
func (s *Server) SetRun(run *Run) {
	s.run.Store(run)
}

// Run returns the run currently shown.
func (s *Server) Run() *Run {
	return s.run.Load()
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/events", s.handleHistory)
	return mux
}

// Start begins listening for HTTP requests.
// blocks until ctx is canceled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if run := s.Run(); run != nil {
			_ = run.Close(shutdownCtx) // disconnects streaming clients so Shutdown doesn't wait on them
		}
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// templateData holds data for the dashboard template.
type templateData struct {
	Server string
	Engine string
	RunID  string
}

// handleIndex serves the main dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := templateData{Server: s.cfg.Server, Engine: s.cfg.Engine}
	if run := s.Run(); run != nil {
		data.RunID = run.ID()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Printf("[WARN] dashboard template: %v", err)
		http.Error(w, "template execution error", http.StatusInternalServerError)
	}
}

// handleEvents serves the SSE stream of the current run.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	run := s.Run()
	if run == nil {
		http.Error(w, "no run", http.StatusNotFound)
		return
	}
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	run.stream.ServeHTTP(w, r)
}

// handleReport serves the run snapshot, including the final report once the run is done.
func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	run := s.Run()
	if run == nil {
		http.Error(w, "no run", http.StatusNotFound)
		return
	}
	writeJSON(w, run.Snapshot())
}

// handleHistory serves buffered events, optionally only those of one check (?check=name).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	run := s.Run()
	if run == nil {
		http.Error(w, "no run", http.StatusNotFound)
		return
	}

	events := run.Buffer.All()
	if name := r.URL.Query().Get("check"); name != "" {
		events = run.Buffer.ByCheck(name)
	}
	if events == nil {
		events = []Event{}
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARN] failed to encode response: %v", err)
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
