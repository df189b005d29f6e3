package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hperssn/repclock/internal/config"
	"github.com/hperssn/repclock/internal/domain"
	"github.com/hperssn/repclock/internal/http"
	"github.com/hperssn/repclock/internal/runner"
	"github.com/hperssn/repclock/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "repclock.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	repo, err := storage.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.DBDriver, err)
	}
	defer repo.Close()
	log.Printf("Recording sessions with %s storage", cfg.DBDriver)

	catalog, err := storage.LoadPlans(cfg.PlansPath)
	if err != nil {
		log.Fatalf("Failed to load plans: %v", err)
	}
	log.Printf("Loaded %d plans", len(catalog.List()))

	manager := runner.NewSessionManager(runner.Options{
		TickInterval: cfg.TickInterval,
		Engine:       domain.EngineOptions{RestBetweenSets: cfg.RestBetweenSets},
		Recorder:     repo,
		Retention:    cfg.SessionRetention,
	})

	api := httpapi.NewAPI(manager, catalog, repo)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.NewRouter(api, cfg.AllowedOrigins),
	}

	go func() {
		log.Printf("Listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop sessions first so open event streams end and final records are saved.
	manager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
