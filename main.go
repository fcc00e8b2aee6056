package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"temperature-dashboard/config"
	"temperature-dashboard/feed"
	"temperature-dashboard/handlers"
	"temperature-dashboard/pipeline"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the data source. An unreachable feed is served as unavailable data.
	source, err := feed.Open(ctx, cfg.Feed)
	switch {
	case errors.Is(err, feed.ErrUnknownDriver):
		log.Fatalf("Failed to open feed: %v", err)
	case err != nil:
		log.Printf("ERROR: failed to open %s feed: %v", cfg.Feed.Driver, err)
		source = feed.Unreachable(err)
	default:
		log.Printf("Connected to %s feed", cfg.Feed.Driver)
	}
	defer source.Close()

	engine := pipeline.NewEngine(source, cfg.Location, handlers.PipelineHooks())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		var ferr *pipeline.FeedConnectionError
		if err := engine.Run(ctx); errors.As(err, &ferr) {
			log.Printf("Dashboard data unavailable until restart: %v", ferr.Err)
		}
	}()

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	dashboardHandler := handlers.NewDashboardHandler(engine, cfg.DefaultPeriod, c)
	router := handlers.NewRouter(dashboardHandler)

	handler := gorillahandlers.RecoveryHandler(gorillahandlers.PrintRecoveryStack(true))(router)
	handler = gorillahandlers.CombinedLoggingHandler(os.Stdout, handler)
	handler = c.Handler(handler)

	srv := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server starting on %s (timezone %s)", cfg.HTTPAddr, cfg.Location)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	dashboardHandler.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	<-engineDone

	log.Println("Server exited")
}
