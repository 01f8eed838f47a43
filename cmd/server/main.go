package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/pkgsync-go/api"
	"github.com/yourusername/pkgsync-go/internal/app"
	"github.com/yourusername/pkgsync-go/internal/infrastructure"
	"github.com/yourusername/pkgsync-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting pkgsync server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Int("repositories", len(config.Repositories)))

	// Create registry database directory
	if err := os.MkdirAll(filepath.Dir(config.Registry.DatabasePath), 0755); err != nil {
		log.Fatal("Failed to create registry directory", zap.Error(err))
	}

	// Initialize registry
	registry, err := infrastructure.NewSQLiteRegistry(config.Registry.DatabasePath, config.Repositories)
	if err != nil {
		log.Fatal("Failed to initialize registry", zap.Error(err))
	}
	defer registry.Close()

	// Initialize sync pipeline
	engine := infrastructure.NewHTTPTransferEngine(config.Transfer.Timeout, config.Transfer.TempDir, log)
	probe := infrastructure.NewHTTPTokenProbe(config.Transfer.Timeout)
	reporter := infrastructure.NewLogReporter(log)
	syncMgr := app.NewSyncManager(registry, engine, probe, reporter, log)

	// Setup HTTP router
	router := api.SetupRouter(syncMgr, registry, log)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
