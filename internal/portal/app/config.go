package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
)

type Config struct {
	APIBaseURL       string // Required: base URL of the Arbeit backend (identity service and business API)
	DatabaseFile     string // Optional: path to SQLite session database (default: ./portal.db)
	MasterSecret     string // Optional: secret the cookie and at-rest keys are derived from
	MasterSecretFile string // Optional: file holding the master secret, read when MasterSecret is empty
	CookieIssuer     string // Optional: issuer of client cookies (default: arbeit-portal)
	CookieSecure     bool   // Optional: mark the client cookie Secure (default: true outside dev)

	ProbeOnRestore    bool          // Optional: confirm restored sessions with the backend (default: true)
	RestoreWait       time.Duration // Optional: how long a guard waits for the startup restore (default: 2s)
	UpstreamTimeout   time.Duration // Optional: bound on each backend call (default: 10s)
	ClientIdleTTL     time.Duration // Optional: idle time before a client workspace is evicted (default: 30m)
	CapturedSecretTTL time.Duration // Optional: lifetime of the login password kept for a forced rotation (default: 15m)
	RecordRetention   time.Duration // Optional: untouched session records older than this are purged (default: 30 days)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 5m)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	cfg := Config{
		APIBaseURL:       getEnvOrDefault("PORTAL_API_BASE_URL", "http://localhost:8000"),
		DatabaseFile:     getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),
		MasterSecret:     os.Getenv("PORTAL_MASTER_SECRET"),
		MasterSecretFile: os.Getenv("PORTAL_MASTER_SECRET_FILE"),
		CookieIssuer:     getEnvOrDefault("PORTAL_COOKIE_ISSUER", "arbeit-portal"),
		CookieSecure:     getEnvBoolOrDefault("PORTAL_COOKIE_SECURE", env != "dev"),

		ProbeOnRestore:    getEnvBoolOrDefault("PORTAL_PROBE_ON_RESTORE", true),
		RestoreWait:       getEnvDurationOrDefault("PORTAL_RESTORE_WAIT", 2*time.Second),
		UpstreamTimeout:   getEnvDurationOrDefault("PORTAL_UPSTREAM_TIMEOUT", identity.DefaultUpstreamTimeout),
		ClientIdleTTL:     getEnvDurationOrDefault("PORTAL_CLIENT_IDLE_TTL", service.DefaultIdleTTL),
		CapturedSecretTTL: getEnvDurationOrDefault("PORTAL_CAPTURED_SECRET_TTL", identity.DefaultCapturedSecretTTL),
		RecordRetention:   getEnvDurationOrDefault("PORTAL_RECORD_RETENTION", service.DefaultRecordRetention),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 5*time.Minute),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
