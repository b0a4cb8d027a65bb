package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealmatchy/backend/config"
	"github.com/mealmatchy/backend/internal/database"
	"github.com/mealmatchy/backend/internal/server"
	"github.com/mealmatchy/backend/internal/session"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the database
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Bring the schema up to date
	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Working sessions live in Redis; fall back to process memory when it
	// is unreachable so the service still comes up in development.
	var sessions session.Store
	if redisClient, err := database.NewRedisClient(cfg); err != nil {
		log.Printf("Warning: Redis unavailable, using in-memory sessions: %v", err)
		sessions = session.NewMemoryStore()
	} else {
		sessions = session.NewRedisStore(redisClient, session.DefaultTTL)
	}

	// Create and start server
	srv := server.NewServer(db, sessions, cfg.JWTSecret)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		errChan <- srv.Start(net.JoinHostPort(cfg.ServerHost, cfg.ServerPort))
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
