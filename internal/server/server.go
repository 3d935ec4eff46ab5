package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"scanguard/internal/dashboard"
	"scanguard/internal/metrics"
	"scanguard/internal/models"
	"scanguard/internal/monitoring"
	"scanguard/internal/radar"
)

//go:embed static/* templates/*
var embeddedAssets embed.FS

// ReadingsSource fetches readings on demand for the chart page.
type ReadingsSource interface {
	Readings(ctx context.Context, limit int) (models.ReadingsPage, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr          string
	Document      *dashboard.Document
	Readings      ReadingsSource
	Tracker       *metrics.Tracker
	PushInterval  time.Duration
	ReadingsLimit int
	MaxRangeCM    float64
}

// Server wraps HTTP serving of the dashboard, its API and static assets.
type Server struct {
	httpServer    *http.Server
	doc           *dashboard.Document
	canvas        *dashboard.Element
	readings      ReadingsSource
	tracker       *metrics.Tracker
	staticFS      fs.FS
	page          *template.Template
	pushInterval  time.Duration
	readingsLimit int
	maxRangeCM    float64

	pngMu      sync.Mutex
	pngVersion uint64
	pngBytes   []byte
}

// New creates a configured HTTP server for the dashboard.
func New(opts Options) (*Server, error) {
	if opts.Document == nil {
		return nil, errors.New("server: document is required")
	}
	canvas, ok := opts.Document.Lookup(dashboard.IDRadarCanvas)
	if !ok || canvas.Kind() != dashboard.KindCanvas {
		return nil, fmt.Errorf("server: document has no %s canvas", dashboard.IDRadarCanvas)
	}
	staticFS, err := fs.Sub(embeddedAssets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets missing: %w", err)
	}
	page, err := template.ParseFS(embeddedAssets, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	if opts.PushInterval <= 0 {
		opts.PushInterval = time.Second
	}
	if opts.ReadingsLimit <= 0 {
		opts.ReadingsLimit = 15
	}
	if opts.MaxRangeCM <= 0 {
		opts.MaxRangeCM = 200
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:    &http.Server{Addr: opts.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		doc:           opts.Document,
		canvas:        canvas,
		readings:      opts.Readings,
		tracker:       opts.Tracker,
		staticFS:      staticFS,
		page:          page,
		pushInterval:  opts.PushInterval,
		readingsLimit: opts.ReadingsLimit,
		maxRangeCM:    opts.MaxRangeCM,
	}
	s.registerRoutes(mux)
	return s, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	fileServer := http.FileServer(http.FS(s.staticFS))

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/radar.png", s.handleRadar)
	mux.HandleFunc("/api/dashboard", s.handleSnapshot)
	mux.HandleFunc("/api/poller", s.handlePollerHealth)
	mux.HandleFunc("/ws", s.handleLive)
	mux.HandleFunc("/charts/readings", s.handleReadingsChart)
}

type indexData struct {
	Elements     map[string]dashboard.ElementState
	RadarVersion uint64
	RadarWidth   int
	RadarHeight  int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := s.doc.Snapshot()
	data := indexData{
		Elements:     snap.ByID(),
		RadarVersion: s.canvas.Version(),
	}
	if img := s.canvas.Image(); img != nil {
		data.RadarWidth = img.Bounds().Dx()
		data.RadarHeight = img.Bounds().Dy()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		monitoring.Logf("render index: %v", err)
	}
}

func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	data, version, err := s.radarPNG()
	if err != nil {
		http.Error(w, "radar unavailable", http.StatusServiceUnavailable)
		return
	}
	etag := `"radar-` + strconv.FormatUint(version, 10) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// radarPNG encodes the canvas once per version.
func (s *Server) radarPNG() ([]byte, uint64, error) {
	version := s.canvas.Version()
	img := s.canvas.Image()
	if img == nil {
		return nil, 0, errors.New("radar canvas not initialised")
	}

	s.pngMu.Lock()
	defer s.pngMu.Unlock()
	if s.pngBytes != nil && s.pngVersion == version {
		return s.pngBytes, version, nil
	}
	data, err := radar.EncodePNG(img)
	if err != nil {
		return nil, 0, err
	}
	s.pngBytes, s.pngVersion = data, version
	return data, version, nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.doc.Snapshot())
}

func (s *Server) handlePollerHealth(w http.ResponseWriter, _ *http.Request) {
	summary := []metrics.PanelHealth{}
	if s.tracker != nil {
		if got := s.tracker.Summary(); got != nil {
			summary = got
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().UTC(),
		"panels":       summary,
	})
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
