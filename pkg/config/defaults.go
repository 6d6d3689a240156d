// Package config provides centralized default values for pagecraft
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	CORSOrigins        string

	// Database
	DBDriver                 string
	DBPath                   string
	TursoDatabase            string
	TursoToken               string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// Auth
	JWTSecret      string
	AdminPassword  string
	EditorPassword string
	TokenTTL       time.Duration

	// Media
	MediaDir string

	// AI Generation
	AIEndpoint string
	AIAPIKey   string
	AITimeout  time.Duration

	// Autosave
	HTMLSaveDebounce   time.Duration
	StreamSaveDebounce time.Duration
	AssetSaveDebounce  time.Duration
	CanvasSaveDebounce time.Duration
	CanvasPollInterval time.Duration
	SaveTimeout        time.Duration
	SaveRetryInterval  time.Duration
	HistoryLimit       int

	// Cleanup
	CleanupInterval    time.Duration
	CleanupVerbose     bool
	SessionIdleTimeout time.Duration
	RenderCacheTTL     time.Duration

	// SSE / Socket
	SSEHeartbeatIntervalSeconds int
	SocketReadLimitBytes        int64

	// Logging
	LogJSON      bool
	LogLevel     string
	LogDirectory string

	// Performance
	PerfSlowThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	// Zero disables the deadline; event streams hold responses open.
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 0)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	CORSOrigins = getEnvString("CORS_ORIGINS", "http://localhost:4321,http://localhost:3000")

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "db/pagecraft.db")
	TursoDatabase = getEnvString("TURSO_DATABASE", "")
	TursoToken = os.Getenv("TURSO_TOKEN")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Auth
	JWTSecret = os.Getenv("JWT_SECRET")
	AdminPassword = os.Getenv("ADMIN_PASSWORD")
	EditorPassword = os.Getenv("EDITOR_PASSWORD")
	TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)

	// Media
	MediaDir = getEnvString("MEDIA_DIR", "media")

	// AI Generation
	AIEndpoint = getEnvString("AI_ENDPOINT", "")
	AIAPIKey = os.Getenv("AI_API_KEY")
	AITimeout = getEnvDuration("AI_TIMEOUT", 120*time.Second)

	// Autosave
	HTMLSaveDebounce = getEnvDuration("HTML_SAVE_DEBOUNCE", 2*time.Second)
	StreamSaveDebounce = getEnvDuration("STREAM_SAVE_DEBOUNCE", 15*time.Second)
	AssetSaveDebounce = getEnvDuration("ASSET_SAVE_DEBOUNCE", time.Second)
	CanvasSaveDebounce = getEnvDuration("CANVAS_SAVE_DEBOUNCE", time.Second)
	CanvasPollInterval = getEnvDuration("CANVAS_POLL_INTERVAL", 500*time.Millisecond)
	SaveTimeout = getEnvDuration("SAVE_TIMEOUT", 15*time.Second)
	SaveRetryInterval = getEnvDuration("SAVE_RETRY_INTERVAL", 10*time.Second)
	HistoryLimit = getEnvInt("HISTORY_LIMIT", 50)

	// Cleanup
	CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 5*time.Minute)
	CleanupVerbose = getEnvBool("CLEANUP_VERBOSE", false)
	SessionIdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour)
	RenderCacheTTL = getEnvDuration("RENDER_CACHE_TTL", time.Hour)

	// SSE / Socket
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)
	SocketReadLimitBytes = int64(getEnvInt("SOCKET_READ_LIMIT_BYTES", 4*1024*1024))

	// Logging
	LogJSON = getEnvBool("LOG_JSON", false)
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogDirectory = getEnvString("LOG_DIRECTORY", "")

	// Performance
	PerfSlowThreshold = getEnvDuration("PERF_SLOW_THRESHOLD", time.Second)
}
