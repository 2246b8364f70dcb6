package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/config"
	"github.com/pep299/idea-validator/internal/handlers"
	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/store"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Idea Validator API Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  PORT                    Server port (default: 8000)\n")
		fmt.Printf("  HOST                    Server host (default: 0.0.0.0)\n")
		fmt.Printf("  STORE_TYPE              Store type: memory or postgres (default: memory)\n")
		fmt.Printf("  DATABASE_URL            Postgres connection string (postgres store)\n")
		fmt.Printf("  SNAPSHOT_PATH           Local JSON snapshot (memory store)\n")
		fmt.Printf("  SNAPSHOT_BUCKET         Cloud Storage bucket holding the snapshot\n")
		fmt.Printf("  SNAPSHOT_OBJECT         Snapshot object name (default: clusters.json)\n")
		fmt.Printf("  CACHE_TYPE              Cache type: memory or none (default: memory)\n")
		fmt.Printf("  REFRESH_SCHEDULE        Cron expression for snapshot refresh\n")
		fmt.Printf("  RATE_LIMIT_RPS          Requests per second, 0 disables (default: 0)\n")
		fmt.Printf("  ADMIN_TOKEN             Bearer token for admin endpoints\n")
		fmt.Printf("  LOG_LEVEL               debug, info, warn or error (default: info)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Idea Validator API Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	handlers.Version = Version

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run serves the API until ctx is done or the listener fails. Everything it
// opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.StoreType, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	server, err := handlers.NewServer(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer server.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      server.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	c := cron.New()
	if cfg.RefreshSchedule != "" {
		_, err := c.AddFunc(cfg.RefreshSchedule, func() {
			if err := server.RefreshSnapshot(ctx); err != nil {
				logger.Error("Scheduled refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling refresh %q: %w", cfg.RefreshSchedule, err)
		}
		logger.Info("Scheduled snapshot refresh", zap.String("schedule", cfg.RefreshSchedule))
	}
	c.Start()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", httpServer.Addr), zap.String("version", Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server")
	case err := <-serverErr:
		runErr = fmt.Errorf("serving on %s: %w", httpServer.Addr, err)
	}

	cancel()
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
	return runErr
}
