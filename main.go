package main

import (
	"context"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pigdice/config"
	"pigdice/game"
	httpserver "pigdice/http"
	"pigdice/random"
	"pigdice/ws"
)

func main() {
	log.Println("Starting Pig dice server...")

	cfg := config.Load()
	log.Printf("Configuration loaded - Server port: %s, static dir: %s", cfg.ServerPort, cfg.StaticDir)

	// Initialize services
	rng := random.New()
	registry := game.NewRegistry(rng)
	sessions := game.NewSessionStore(rng)
	hub := ws.NewHub()
	coordinator := ws.NewCoordinator(registry, sessions, hub)

	// Initialize HTTP server
	server := httpserver.NewServer(registry, sessions, coordinator, cfg.StaticDir)
	srv := server.GetHTTPServer(cfg.ServerPort)

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on http://localhost%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
