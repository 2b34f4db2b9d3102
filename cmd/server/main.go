/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the forecast engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the background batch runner (unless disabled)
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port            HTTP server port (default: 8080)
  -db              SQLite database path (default: forecast.db)
                   Use ":memory:" for an in-memory database
  -workers         Concurrent templates per batch run (default: 4)
  -batch-interval  How often the background batch runs (default: 1h)
  -batch           Enable the background batch runner (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Stop the batch runner and wait for the in-flight run
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/forecast.db"

  # Run without automatic batch generation
  ./server -batch=false

  # Faster batch cadence for development
  ./server -batch-interval=1m

ENVIRONMENT:
  No environment variables currently. All config via flags.
  Future: DATABASE_URL, PORT, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/batch.go: Background batch runner
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/forecast-engine/api"
	"github.com/warp/forecast-engine/forecast"
	"github.com/warp/forecast-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "forecast.db", "SQLite database path")
	workers := flag.Int("workers", 4, "concurrent templates per batch run")
	batchInterval := flag.Duration("batch-interval", 1*time.Hour, "background batch run interval")
	batchEnabled := flag.Bool("batch", true, "enable the background batch runner")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	config := forecast.DefaultSchedulerConfig()
	config.Workers = *workers
	handler := api.NewHandler(store, config)

	// Background batch generation
	runner := api.NewBatchRunner(handler.Scheduler)
	runner.Interval = *batchInterval
	runner.Enabled = *batchEnabled
	runner.Start()
	defer runner.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
