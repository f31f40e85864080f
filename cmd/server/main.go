package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natsmesh/natsmesh/internal/api"
	"github.com/natsmesh/natsmesh/internal/config"
	"github.com/natsmesh/natsmesh/internal/credential"
	"github.com/natsmesh/natsmesh/internal/service"
	"github.com/natsmesh/natsmesh/internal/signer"
	"github.com/natsmesh/natsmesh/internal/storage/sql"
	"github.com/natsmesh/natsmesh/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		dir := "data"
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize the credential signer (or the in-memory fake for testing)
	var sgn signer.Signer
	if cfg.Signer.Fake {
		log.Printf("Using in-memory fake signer")
		sgn = signer.NewFake()
	} else {
		nsc, err := signer.NewNSC(cfg.Signer.NSCPath, cfg.Signer.StoreDir)
		if err != nil {
			log.Fatalf("Failed to initialize nsc signer: %v", err)
		}
		sgn = nsc
	}

	// Initialize services
	builder := credential.NewBuilder(sgn, cfg.Signer.CallTimeout, cfg.Signer.MaxRetries)
	engine := service.NewEngine(builder, validation.Options{})
	genService := service.NewGenerationService(store, engine)

	// Create router
	router := api.NewRouter(store, engine, genService, cfg.Auth.BootstrapAPIKey)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting natsmesh on http://%s", cfg.Server.Addr())
	log.Printf("Press Ctrl+C to stop")

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
