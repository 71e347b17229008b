package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EmbeddingDimension is the width of the documents.embedding column.
const EmbeddingDimension = 768

type Config struct {
	DatabaseURL string
	SslCertPath string
	SecretKey   string

	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	EmbedTimeout time.Duration
	GenModel     string

	ScrapeTimeout  time.Duration
	ScrapeMaxBytes int64
	ChunkSize      int
	ChunkOverlap   int

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	RedisAddr     string
	RedisPassword string
	AskRateLimit  int
	AskRateWindow time.Duration

	AllowedOrigins []string
	LogLevel       string
	Port           string
}

// LoadConfig loads the environment variables (and .env when present) and returns config.
// Call Validate before using it.
func LoadConfig() *Config {

	_ = godotenv.Load()

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		SecretKey:   getEnv("SECRET_KEY", ""),

		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", EmbeddingDimension),
		EmbedTimeout: getEnvDuration("EMBED_TIMEOUT", 60*time.Second),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),

		ScrapeTimeout:  getEnvDuration("SCRAPE_TIMEOUT", 20*time.Second),
		ScrapeMaxBytes: int64(getEnvInt("SCRAPE_MAX_BYTES", 5<<20)),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 1500),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		AskRateLimit:  getEnvInt("ASK_RATE_LIMIT", 30),
		AskRateWindow: getEnvDuration("ASK_RATE_WINDOW", time.Minute),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnv("PORT", "5000"),
	}
}

// Validate reports every missing secret or inconsistent setting at once so the
// process can refuse to start instead of failing mid-request.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY not set"))
	}
	if c.AIAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY not set"))
	}
	if c.EmbedDim != EmbeddingDimension {
		errs = append(errs, fmt.Errorf("EMBED_DIM=%d does not match the schema dimension %d", c.EmbedDim, EmbeddingDimension))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP=%d must be in [0, CHUNK_SIZE)", c.ChunkOverlap))
	}
	return errors.Join(errs...)
}

// ObjectStorageEnabled is true when page snapshots can be archived to S3.
func (c *Config) ObjectStorageEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// InitLogger installs a JSON slog logger as the process default.
// Accepts levels: debug, info, warn, error. Defaults to info on unknown input.
func InitLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)
	return logger
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("env value is not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("env value is not a duration, using default", "key", key, "value", v, "default", def.String())
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
