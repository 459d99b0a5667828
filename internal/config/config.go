package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName  string
	AppEnv   string
	Port     string
	Timezone string // IANA zone used to decide which calendar day "today" is

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Verification (OpenAI vision model, or a remote verify-proof endpoint)
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	VerifierURL          string // Optional: delegate verification to a remote endpoint
	VerifierToken        string // Optional: bearer token sent to VerifierURL
	VerifierTimeout      time.Duration
	VerifierSignedURLTTL time.Duration

	// Proofs
	ProofAuditRejected  bool  // Persist rejected proofs (verified=false) for audit
	ProofMaxImageBytes  int64 // Upper bound for a single proof image
	ProofRatePerMinute  int   // Submissions allowed per user per minute
	ProofSignedURLTTL   time.Duration
	StreakMaxRetries    uint64
	StreakLockTTL       time.Duration
	FeedLimit           int
	UsernameSearchLimit int

	// Coordination (optional)
	RedisURL string

	// Observability (optional)
	SentryDSN string
	LogFile   string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:  envString("APP_NAME", "Proovit"),
		AppEnv:   envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:     envString("PORT", "8090"),
		Timezone: envString("APP_TIMEZONE", "UTC"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/proovit.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 720*time.Hour), // 30 days

		// Verification
		OpenAIAPIKey:         envString("OPENAI_API_KEY", ""),
		OpenAIModel:          envString("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:        envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		VerifierURL:          envString("VERIFIER_URL", ""),
		VerifierToken:        envString("VERIFIER_TOKEN", ""),
		VerifierTimeout:      envDuration("VERIFIER_TIMEOUT", 30*time.Second),
		VerifierSignedURLTTL: envDuration("VERIFIER_SIGNED_URL_TTL", 5*time.Minute),

		// Proofs
		ProofAuditRejected:  envBool("PROOF_AUDIT_REJECTED", false),
		ProofMaxImageBytes:  int64(envInt("PROOF_MAX_IMAGE_BYTES", 10<<20)), // 10MB
		ProofRatePerMinute:  envInt("PROOF_RATE_PER_MINUTE", 6),
		ProofSignedURLTTL:   envDuration("PROOF_SIGNED_URL_TTL", 1*time.Hour),
		StreakMaxRetries:    uint64(envInt("STREAK_MAX_RETRIES", 5)),
		StreakLockTTL:       envDuration("STREAK_LOCK_TTL", 10*time.Second),
		FeedLimit:           envInt("FEED_LIMIT", 50),
		UsernameSearchLimit: envInt("USERNAME_SEARCH_LIMIT", 20),

		// Coordination
		RedisURL: envString("REDIS_URL", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
		LogFile:   envString("LOG_FILE", ""),

		// Storage (S3-compatible - required for proof images)
		S3Region:    envRequired("S3_REGION"),
		S3Bucket:    envString("S3_BUCKET", "proof-images"),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
	}

	_, err = cfg.Location()
	if err != nil {
		slog.Error("config invalid timezone", "key", "APP_TIMEZONE", "value", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
func validateProduction(cfg *Config) {
	if cfg.OpenAIAPIKey == "" && cfg.VerifierURL == "" {
		slog.Error("production deployment requires OPENAI_API_KEY or VERIFIER_URL",
			"hint", "set VERIFIER_URL to delegate verification to a remote endpoint")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves Timezone. "Local" and empty mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
