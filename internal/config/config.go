package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

const (
	IdentityLocal  = "local"
	IdentityRemote = "remote"

	UserStoreJSON = "json"
	UserStoreSQL  = "sql"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// HTTP server
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string

	// Honor X-Forwarded-For / X-Real-IP when identifying clients. Enable only
	// behind a reverse proxy that overwrites these headers; otherwise any
	// caller can pick its own identity.
	TrustProxyHeaders bool

	// Persistence
	DataPath   string
	VideosFile string
	UsersFile  string

	// Media
	MediaPath      string
	UploadMaxBytes int64
	StorageDriver  string // "local" or "s3"

	// Engagement
	CommentCooldown         time.Duration
	EngagementRetention     time.Duration
	EngagementPruneInterval time.Duration

	// Identity
	IdentityMode string // "local" or "remote"
	IdentityURL  string // Remote identity service base URL
	UserStore    string // "json" or "sql"
	JWTSecret    string
	JWTExpiry    time.Duration

	// Database (only used when USER_STORE=sql)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN string
	LogFile   string

	// Storage (S3-compatible, only used when STORAGE_DRIVER=s3)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	dataPath := envString("DATA_PATH", "data")

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "clipfeed"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "3000"),

		// HTTP server
		ReadTimeout:        envDuration("SERVER_READ_TIMEOUT", 5*time.Minute), // uploads can be large
		WriteTimeout:       envDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
		IdleTimeout:        envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustProxyHeaders:  envBool("TRUST_PROXY_HEADERS", false),

		// Persistence
		DataPath:   dataPath,
		VideosFile: envString("VIDEOS_FILE", filepath.Join(dataPath, "videos.json")),
		UsersFile:  envString("USERS_FILE", filepath.Join(dataPath, "users.json")),

		// Media
		MediaPath:      envString("MEDIA_PATH", "uploads"),
		UploadMaxBytes: envBytes("UPLOAD_MAX_SIZE", 1<<30), // 1 GiB
		StorageDriver:  envString("STORAGE_DRIVER", StorageLocal),

		// Engagement
		CommentCooldown:         envDuration("COMMENT_COOLDOWN", 4*time.Second),
		EngagementRetention:     envDuration("ENGAGEMENT_RETENTION", 24*time.Hour),
		EngagementPruneInterval: envDuration("ENGAGEMENT_PRUNE_INTERVAL", time.Hour),

		// Identity
		IdentityMode: envString("IDENTITY_MODE", IdentityLocal),
		IdentityURL:  strings.TrimSuffix(envString("IDENTITY_URL", ""), "/"),
		UserStore:    envString("USER_STORE", UserStoreJSON),
		JWTSecret:    envString("JWT_SECRET", ""),
		JWTExpiry:    envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", filepath.Join(dataPath, "clipfeed.db")+"?_pragma=journal_mode(WAL)"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
		LogFile:   envString("LOG_FILE", ""),

		// Storage
		S3Region:        envString("S3_REGION", ""),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", time.Hour),
	}

	validate(cfg)

	return cfg
}

// validate stops the process when the selected backends are missing required settings.
// Development falls back to an insecure signing secret so local testing works without setup.
func validate(cfg *Config) {
	switch cfg.IdentityMode {
	case IdentityLocal:
		if cfg.JWTSecret == "" {
			if cfg.IsProduction() {
				fatal("production deployment requires JWT_SECRET", "hint", "set APP_ENV=development for local testing")
			}
			slog.Warn("JWT_SECRET not set, using insecure development secret")
			cfg.JWTSecret = "clipfeed-development-secret"
		}
	case IdentityRemote:
		if cfg.IdentityURL == "" {
			fatal("remote identity requires IDENTITY_URL")
		}
	default:
		fatal("config invalid IDENTITY_MODE", "value", cfg.IdentityMode)
	}

	if cfg.UserStore != UserStoreJSON && cfg.UserStore != UserStoreSQL {
		fatal("config invalid USER_STORE", "value", cfg.UserStore)
	}

	if cfg.StorageDriver == StorageS3 && (cfg.S3Region == "" || cfg.S3Bucket == "") {
		fatal("s3 storage requires S3_REGION and S3_BUCKET")
	}
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
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

// envBytes accepts human readable sizes such as "1GiB", "500MB" or plain byte counts.
func envBytes(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := humanize.ParseBytes(v)
	if err != nil || n == 0 {
		slog.Warn("config invalid size, using default", "key", key, "value", v, "default", humanize.IBytes(uint64(def)))
		return def
	}
	return int64(n)
}

func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
