package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/ministry/internal/migrate"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Store
	StoreBackend string // "memory" | "redis" | "sqlite"
	SQLitePath   string // ex: "/data/ministry.db"

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisKeyPrefix      string        // namespace for every key, ex: "ministry:"
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Admin identity
	AdminUser         string
	AdminPassword     string // plain, for local runs
	AdminPasswordHash string // bcrypt, wins over AdminPassword
	SessionTTL        time.Duration
	CookieSecure      bool // Secure attribute on session and csrf cookies

	// Retention
	SweepInterval         time.Duration // 0 => external trigger only
	AnalyticsRetention    time.Duration
	PrayedRetention       time.Duration
	LoginAttemptRetention time.Duration

	NotifyTimeout time.Duration // Discord webhook timeout

	AllowedHosts []string // optional, restrict access to specific Host headers
	AdminCIDRS   []string // optional, restrict /admin to specific IPs or CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// From the optional YAML file
	ConfigFile string
	RateLimits map[string]ratelimit.Profile
	PurgePlan  migrate.Plan
}

// File is the optional YAML overlay named by MINISTRY_CONFIG_FILE.
type File struct {
	RateLimits map[string]ratelimit.Profile `yaml:"rate_limits"`
	Purge      migrate.Plan                 `yaml:"purge"`
}

// Load reads the server configuration. It panics when the admin identity is
// missing.
func Load() *Config {
	cfg := load()
	requireEnv("MINISTRY_ADMIN_USER")
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		panic("❌ FATAL: MINISTRY_ADMIN_PASSWORD or MINISTRY_ADMIN_PASSWORD_HASH must be set")
	}
	return cfg
}

// LoadTool reads the configuration for one-shot commands, which need the
// store but not the admin identity.
func LoadTool() *Config {
	return load()
}

func load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MINISTRY_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MINISTRY_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MINISTRY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MINISTRY_PRETTY_LOG", true),

		// Store
		StoreBackend: strings.ToLower(getenv("MINISTRY_STORE", BackendSQLite)),
		SQLitePath:   getenv("MINISTRY_SQLITE_PATH", "/data/ministry.db"),

		// Redis settings
		RedisAddr:           getenv("MINISTRY_REDIS_ADDR", ""),
		RedisUser:           getenv("MINISTRY_REDIS_USERNAME", ""),
		RedisPassword:       getenv("MINISTRY_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("MINISTRY_REDIS_DB", 0),
		RedisKeyPrefix:      getenv("MINISTRY_REDIS_KEY_PREFIX", "ministry:"),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Admin
		AdminUser:         getenv("MINISTRY_ADMIN_USER", ""),
		AdminPassword:     getenv("MINISTRY_ADMIN_PASSWORD", ""),
		AdminPasswordHash: getenv("MINISTRY_ADMIN_PASSWORD_HASH", ""),
		SessionTTL:        mustDuration("MINISTRY_SESSION_TTL", 7*24*time.Hour),
		CookieSecure:      mustBool("MINISTRY_COOKIE_SECURE", true),

		// Retention
		SweepInterval:         mustDuration("MINISTRY_SWEEP_INTERVAL", 0),
		AnalyticsRetention:    mustDuration("MINISTRY_ANALYTICS_RETENTION", 90*24*time.Hour),
		PrayedRetention:       mustDuration("MINISTRY_PRAYED_RETENTION", 30*24*time.Hour),
		LoginAttemptRetention: mustDuration("MINISTRY_LOGIN_ATTEMPT_RETENTION", 30*24*time.Hour),

		NotifyTimeout: mustDuration("MINISTRY_NOTIFY_TIMEOUT", 5*time.Second),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("MINISTRY_ALLOWED_HOSTS", "")),
		AdminCIDRS:   parseAllowedIPs(getenv("MINISTRY_ADMIN_CIDRS", "")),
		TrustProxy:   mustBool("MINISTRY_TRUST_PROXY", true),

		ConfigFile: getenv("MINISTRY_CONFIG_FILE", ""),
		PurgePlan:  migrate.DefaultPlan(),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			panic("❌ FATAL: MINISTRY_REDIS_ADDR is required when MINISTRY_STORE=redis")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown MINISTRY_STORE %q (want memory, redis or sqlite)", cfg.StoreBackend))
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.AdminPassword = "***REDACTED***"
		cfgCopy.AdminPasswordHash = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// applyFile overlays the YAML file on cfg. Absent sections keep their values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if len(f.RateLimits) > 0 {
		c.RateLimits = f.RateLimits
	}
	if len(f.Purge.Prefixes) > 0 {
		c.PurgePlan = f.Purge
	}
	return nil
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

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
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
