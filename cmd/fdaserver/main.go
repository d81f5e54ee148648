package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openvaers/analyzer-backend/internal/adapters/database"
	"github.com/openvaers/analyzer-backend/internal/api/handlers"
	"github.com/openvaers/analyzer-backend/internal/api/middleware"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	"github.com/openvaers/analyzer-backend/pkg/config"
)

// Standalone FDA tool server. Serves the tool calls the analysis pipeline
// issues over HTTP, backed by the fda_reports table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	fdaRepo := database.NewFDAReportAdapter(pgClient)
	toolHandler := handlers.NewFDAToolHandler(fdaRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})
	mux.HandleFunc("POST /fda", toolHandler.HandleToolCall)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	addr := listenAddr(cfg.FDATools.BaseURL)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("FDA tool server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("FDA tool server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("FDA tool server stopped")
}

// listenAddr derives the bind address from the configured tool server URL
// so the API and the tool server agree on the port.
func listenAddr(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Port() != "" {
		return ":" + u.Port()
	}
	return ":8090"
}
