package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Upstream endpoints. Missing values are fatal at startup - the
	// dashboard has nothing to poll without them.
	PlayersURL string // roster API, ex: http://game:30120/players
	MetricsURL string // metrics API, ex: http://game:30120/metrics
	ShiftsURL  string // shift sheet export (CSV) or tabular API (JSON)

	SourcesFile   string // optional path to sources.yaml (shift sheet layout)
	UpstreamToken string // optional bearer token sent to upstreams

	RefreshInterval time.Duration // roster auto-refresh countdown (default: 30s)
	ShiftTTL        time.Duration // shift cache freshness window (default: 60s)
	FetchTimeout    time.Duration // per-attempt fetch timeout (default: 8s)
	FetchRetries    int           // retry attempts after the first failure (default: 3)

	// Redis (optional shared shift cache tier; empty addr = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	AllowedOrigins []string // optional Origin allow-list for the API (empty = any origin)
	APIToken       string   // optional shared-secret bearer token required from clients
	AllowedCIDRS   []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy     bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ROSTERWATCH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ROSTERWATCH_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("ROSTERWATCH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ROSTERWATCH_PRETTY_LOG", true),

		// Upstreams
		PlayersURL:    requireEnv("ROSTERWATCH_PLAYERS_URL"),
		MetricsURL:    requireEnv("ROSTERWATCH_METRICS_URL"),
		ShiftsURL:     requireEnv("ROSTERWATCH_SHIFTS_URL"),
		SourcesFile:   getenv("ROSTERWATCH_SOURCES_FILE", ""),
		UpstreamToken: getenv("ROSTERWATCH_UPSTREAM_TOKEN", ""),

		// Refresh cadence
		RefreshInterval: mustDuration("ROSTERWATCH_REFRESH_INTERVAL", 30*time.Second),
		ShiftTTL:        mustDuration("ROSTERWATCH_SHIFT_TTL", 60*time.Second),
		FetchTimeout:    mustDuration("ROSTERWATCH_FETCH_TIMEOUT", 8*time.Second),
		FetchRetries:    getenvInt("ROSTERWATCH_FETCH_RETRIES", 3),

		// Redis settings (optional)
		RedisAddr:           getenv("ROSTERWATCH_REDIS_ADDR", ""),
		RedisUser:           getenv("ROSTERWATCH_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("ROSTERWATCH_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("ROSTERWATCH_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedOrigins: splitAndTrim(getenv("ROSTERWATCH_ALLOWED_ORIGINS", "")),
		APIToken:       getenv("ROSTERWATCH_API_TOKEN", ""),
		AllowedCIDRS:   splitAndTrim(getenv("ROSTERWATCH_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("ROSTERWATCH_TRUST_PROXY", true),
	}

	if cfg.FetchRetries < 0 {
		panic(fmt.Sprintf("❌ FATAL: ROSTERWATCH_FETCH_RETRIES must be >= 0, got %d", cfg.FetchRetries))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.UpstreamToken != "" {
			cfgCopy.UpstreamToken = "***REDACTED***"
		}
		if cfg.APIToken != "" {
			cfgCopy.APIToken = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether the shared shift cache tier is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
