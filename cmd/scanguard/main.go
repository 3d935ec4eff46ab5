package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scanguard/internal/backend"
	"scanguard/internal/config"
	"scanguard/internal/dashboard"
	"scanguard/internal/metrics"
	"scanguard/internal/poller"
	"scanguard/internal/radar"
	"scanguard/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", "", "address for the web server (overrides listen_addr)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Polling %s every %s", cfg.APIBaseURL, cfg.PollInterval())

	doc, err := dashboard.NewDocument(dashboard.DefaultLayout())
	if err != nil {
		log.Fatalf("build dashboard: %v", err)
	}
	els, err := dashboard.Bind(doc)
	if err != nil {
		log.Fatalf("bind dashboard: %v", err)
	}
	scope, err := radar.NewScope(radar.Geometry{
		Width:      cfg.Radar.Width,
		Height:     cfg.Radar.Height,
		MaxRangeCM: cfg.Radar.MaxRangeCM,
	})
	if err != nil {
		log.Fatalf("radar: %v", err)
	}
	format, err := dashboard.NewFormatter(cfg.Locale, loc)
	if err != nil {
		log.Fatalf("formatter: %v", err)
	}
	renderer := dashboard.NewRenderer(els, scope, format)
	renderer.InitRadar()

	client, err := backend.New(backend.Options{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		Device:  cfg.Device,
		Timeout: cfg.RequestTimeout(),
	})
	if err != nil {
		log.Fatalf("backend client: %v", err)
	}

	tracker := metrics.NewTracker()
	poll, err := poller.New(poller.Config{
		Interval:      cfg.PollInterval(),
		ReadingsLimit: cfg.ReadingsLimit,
		AlertsLimit:   cfg.AlertsLimit,
		DropStale:     cfg.DropStaleResponses,
	}, client, renderer, poller.WithRecorder(tracker))
	if err != nil {
		log.Fatalf("poller: %v", err)
	}

	srv, err := server.New(server.Options{
		Addr:          cfg.ListenAddr,
		Document:      doc,
		Readings:      client,
		Tracker:       tracker,
		PushInterval:  cfg.PushInterval(),
		ReadingsLimit: cfg.ReadingsLimit,
		MaxRangeCM:    cfg.Radar.MaxRangeCM,
	})
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	poll.Start()
	defer poll.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("ScanGuard listening on %s", cfg.ListenAddr)
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
