// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/repositories"
	schema "github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/ai"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/persistence/pages"
	"github.com/AtRiskMedia/pagecraft-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Editor Services
	SessionService *services.SessionService
	PageService    *services.PageService
	MediaService   *services.MediaService
	AuthService    *services.AuthService

	// Infrastructure Dependencies
	DB          *database.DB
	Pages       repositories.PageRepository
	RenderCache *caching.RenderCache
	Broadcaster *messaging.SSEBroadcaster
	SocketHub   *messaging.SocketHub
	Logger      *logging.ChanneledLogger
	LogStream   *logging.LogBroadcaster
	PerfTracker *performance.Tracker
}

// NewContainer opens the page store and wires every service from the
// package-level configuration.
func NewContainer() (*Container, error) {
	logStream := logging.NewLogBroadcaster()
	logger, err := newLogger(logStream)
	if err != nil {
		return nil, err
	}
	perfTracker := performance.NewTracker(&performance.TrackerConfig{
		SlowThreshold: config.PerfSlowThreshold,
		MaxAlerts:     200,
	})

	db, err := database.NewConnection(database.Config{
		Driver:          config.DBDriver,
		SQLitePath:      config.DBPath,
		TursoDatabase:   config.TursoDatabase,
		TursoToken:      config.TursoToken,
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(config.DBConnMaxIdleMinutes) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to page store: %w", err)
	}
	creator := schema.NewTableCreator()
	if err := creator.CreateSchema(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	if err := creator.SeedInitialContent(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	return Wire(db, pages.NewPageRepository(db.DB, logger), logger, logStream, perfTracker), nil
}

// Wire assembles the services around an already opened page store.
func Wire(db *database.DB, store repositories.PageRepository, logger *logging.ChanneledLogger, logStream *logging.LogBroadcaster, perfTracker *performance.Tracker) *Container {
	renderCache := caching.NewRenderCache(config.RenderCacheTTL)
	pageRepo := caching.NewPageRepository(store, renderCache)

	broadcaster := messaging.NewSSEBroadcaster(logger)
	socketHub := messaging.NewSocketHub(logger)
	socketHub.SetReadLimit(config.SocketReadLimitBytes)

	var generator services.Generator
	if config.AIEndpoint != "" {
		generator = ai.NewClient(ai.Config{
			Endpoint: config.AIEndpoint,
			APIKey:   config.AIAPIKey,
			Timeout:  config.AITimeout,
		}, logger)
	}

	syncConfig := services.SyncConfig{
		HTMLDebounce:   config.HTMLSaveDebounce,
		StreamDebounce: config.StreamSaveDebounce,
		AssetDebounce:  config.AssetSaveDebounce,
		CanvasDebounce: config.CanvasSaveDebounce,
		PollInterval:   config.CanvasPollInterval,
		SaveTimeout:    config.SaveTimeout,
		RetryInterval:  config.SaveRetryInterval,
	}

	return &Container{
		SessionService: services.NewSessionService(
			pageRepo,
			messaging.Fanout{broadcaster, socketHub},
			generator,
			syncConfig,
			config.HistoryLimit,
			logger,
			perfTracker,
		),
		PageService:  services.NewPageService(pageRepo, renderCache, logger),
		MediaService: services.NewMediaService(media.NewImageProcessor(config.MediaDir), logger, perfTracker),
		AuthService: services.NewAuthService(services.AuthConfig{
			AdminPassword:  config.AdminPassword,
			EditorPassword: config.EditorPassword,
			JWTSecret:      config.JWTSecret,
			TokenTTL:       config.TokenTTL,
		}, logger, perfTracker),

		DB:          db,
		Pages:       pageRepo,
		RenderCache: renderCache,
		Broadcaster: broadcaster,
		SocketHub:   socketHub,
		Logger:      logger,
		LogStream:   logStream,
		PerfTracker: perfTracker,
	}
}

func newLogger(stream *logging.LogBroadcaster) (*logging.ChanneledLogger, error) {
	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		OutputToFile:    config.LogDirectory != "",
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSON,
		DefaultLevel:    level,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
		Stream:          stream,
	})
}

// CleanupWorker builds the background worker that closes idle sessions
// without live clients and purges expired renders.
func (c *Container) CleanupWorker() *cleanup.Worker {
	busy := func(sessionID string) bool {
		return c.Broadcaster.ConnectionCount(sessionID) > 0 || c.SocketHub.ConnectionCount(sessionID) > 0
	}
	return cleanup.NewWorker(c.SessionService, busy, []cleanup.Purger{c.RenderCache}, cleanup.NewConfig(), c.Logger)
}

// Close releases the page store.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
