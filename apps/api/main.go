package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/smarttransit/dashboard/apps/api/config"
	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/handlers"
	"github.com/smarttransit/dashboard/apps/api/metrics"
	"github.com/smarttransit/dashboard/apps/api/publisher"
	"github.com/smarttransit/dashboard/apps/api/repository"
)

func main() {
	// Load .env files from repository root
	// Load base .env first, then .env.local (which overrides for local development)
	config.LoadDotEnv("../../.env", "../../.env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("Loading registries from %s source", cfg.DataSource)
	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	repo, err := repository.Open(loadCtx, repository.LoadOptions{
		Source:      cfg.DataSource,
		SeedFile:    cfg.SeedFile,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	loadCancel()
	if err != nil {
		log.Fatalf("Failed to load registries: %v", err)
	}
	counts := repo.Counts()
	log.Printf("Registries loaded: %d buses, %d routes, %d stops (%d with ETAs)",
		counts.Buses, counts.Routes, counts.Stops, counts.ETAStops)

	// Metrics
	mcol := metrics.NewCollector(cfg.SearchLatency)
	mcol.SetRegistryCounts(counts.Buses, counts.Routes, counts.Stops, counts.ETAStops)
	if cfg.MetricsAddr != "" {
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Optional NATS event publisher
	var pub *publisher.NATSPublisher
	if cfg.NATSURL != "" {
		pub, err = publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer pub.Close()
		log.Printf("Publishing dashboard events to NATS at %s", cfg.NATSURL)
	}

	// Dashboard state
	search := dashboard.NewJourneySearch(repo, cfg.SearchLatency)
	sessions := dashboard.NewSessionStore(cfg.SessionCapacity, cfg.SessionTTL)
	mcol.WatchSessions(sessions.Len)
	dash := dashboard.New(repo, search, sessions, newEventObserver(mcol, pub))

	// Handlers
	healthHandler := handlers.NewHealthHandler(repo, sessions.Len)
	busHandler := handlers.NewBusHandler(repo, mcol)
	routeHandler := handlers.NewRouteHandler(repo)
	stopHandler := handlers.NewStopHandler(repo)
	journeyHandler := handlers.NewJourneyHandler(search, mcol)
	sessionHandler := handlers.NewSessionHandler(ctx, dash, mcol)
	feedHandler := handlers.NewFeedHandler(repo)

	// Setup router
	r := chi.NewRouter()
	r.Use(mcol.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", handlers.Liveness)
	r.Get("/api/ping", handlers.Ping)
	r.Handle("/metrics", mcol.Handler())

	// Fleet, route and stop registries
	r.Get("/api/buses", busHandler.GetBuses)
	r.Get("/api/buses/filters", busHandler.GetFilterOptions)
	r.Get("/api/buses/{busId}", busHandler.GetBusByID)
	r.Get("/api/routes", routeHandler.GetRoutes)
	r.Get("/api/routes/{routeId}", routeHandler.GetRouteByID)
	r.Get("/api/stops", stopHandler.GetStops)
	r.Get("/api/stops/popular", stopHandler.GetPopularStops)
	r.Get("/api/stops/{stopId}/etas", stopHandler.GetStopETAs)

	// Journey search and dashboard sessions
	r.Get("/api/journey", journeyHandler.Search)
	r.Route("/api/sessions", sessionHandler.Routes)

	// GTFS-Realtime export
	r.Get("/api/feeds/vehicle-positions.pb", feedHandler.GetVehiclePositions)

	// Static file serving (if configured)
	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("API server starting on :%s", cfg.Port)
	log.Println("Registry endpoints:")
	log.Println("  GET /api/buses?q=&route=")
	log.Println("  GET /api/buses/filters")
	log.Println("  GET /api/buses/{busId}")
	log.Println("  GET /api/routes[/{routeId}]")
	log.Println("  GET /api/stops, /api/stops/popular, /api/stops/{stopId}/etas")
	log.Println("Journey:")
	log.Println("  GET /api/journey?pickup=")
	log.Println("Sessions:")
	log.Println("  POST /api/sessions")
	log.Println("  GET  /api/sessions/{sessionId}/view")
	log.Println("Feeds:")
	log.Println("  GET /api/feeds/vehicle-positions.pb")
	log.Println("Health:")
	log.Println("  GET /health (with registry counts)")

	go func() {
		<-ctx.Done()
		log.Println("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
