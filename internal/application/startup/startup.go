// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/container"
	"github.com/AtRiskMedia/pagecraft-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/pagecraft-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize opens the page store, starts the editor API and blocks until
// an interrupt, then flushes every open session before exiting.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
  ┌─┐┌─┐┌─┐┌─┐┌─┐┬─┐┌─┐┌─┐┌┬┐
  ├─┘├─┤│ ┬├┤ │  ├┬┘├─┤├┤  │
  ┴  ┴ ┴└─┘└─┘└─┘┴└─┴ ┴└   ┴
` + "\033[97m" + `
  made by At Risk Media
` + "\033[0m")

	// Step 1: Create dependency injection container
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer appContainer.Logger.Close()

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging",
		"database", appContainer.DB.Driver,
		"aiEnabled", config.AIEndpoint != "")

	if config.AdminPassword == "" && config.EditorPassword == "" {
		logger.Startup().Warn("No ADMIN_PASSWORD or EDITOR_PASSWORD set; nobody can log in")
	}

	// Step 2: Start the socket hub
	go appContainer.SocketHub.Run(ctx)
	logger.Startup().Info("Socket hub started")

	// Step 3: Start background cleanup worker
	go appContainer.CleanupWorker().Start(ctx)

	// Step 4: Start HTTP server
	startServerTime := time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", config.Port, "duration", time.Since(startServerTime))

	// Step 5: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}

	cancelBackgroundTasks()

	// Sessions are closed after the server so no edit lands after the final
	// flush.
	logger.Shutdown().Info("Flushing open editor sessions...")
	if err := appContainer.SessionService.CloseAll(shutdownCtx); err != nil {
		logger.Shutdown().Error("Some sessions failed to save", "error", err.Error())
	}

	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing page store", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
