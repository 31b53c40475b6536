/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the monthly fee server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, CUOTAS_* variables, flags)
  2. Load the price table
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the generation scheduler (if enabled)
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: CUOTAS_PORT or 8080)
  -db       SQLite database path (default: CUOTAS_DB or cuotas.db)
            Use ":memory:" for in-memory database
  -pricing  Price table JSON file (default: CUOTAS_PRICING_FILE, built-in prices)
  -env      Environment file (default: .env)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/cuotas.db"

  # Run with a season's price list
  ./server -pricing=./precios-2026.json

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mateatletas/cuotas/api"
	"github.com/mateatletas/cuotas/config"
	"github.com/mateatletas/cuotas/factory"
	"github.com/mateatletas/cuotas/store/sqlite"
)

func main() {
	// Flags
	envFile := flag.String("env", "", "Environment file (default .env)")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	pricingFile := flag.String("pricing", "", "Price table JSON file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *pricingFile != "" {
		cfg.PricingFile = *pricingFile
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	table, err := factory.NewTableFactory().LoadTableFile(cfg.PricingFile)
	if err != nil {
		logger.Error("failed to load price table", "error", err)
		os.Exit(1)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "db", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	handler := api.NewHandler(store, table, logger)
	router := api.NewRouter(handler, cfg.AllowedOrigins...)

	scheduler := api.NewGenerationScheduler(handler)
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
