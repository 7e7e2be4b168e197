package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	LogMode     string
	JWTSecret   string
	CORSOrigins []string

	StorageBackend string // s3 | local
	StorageDir     string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string

	AIMode    string // stub | gemini
	AIAPIKey  string
	GenModel  string
	AITimeout time.Duration

	ChunkMaxSize        int
	ChunkMinSize        int
	RAGLimitPerCategory int
	IngestWorkers       int
	IngestQueueSize     int
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", "dev"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		StorageDir:     getEnv("STORAGE_DIR", "storage"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "csrdesk-sources"),

		AIMode:    getEnv("AI_MODE", "stub"),
		AIAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GenModel:  getEnv("GEN_MODEL", "gemini-1.5-flash"),
		AITimeout: getEnvDuration("AI_TIMEOUT", 60*time.Second),

		ChunkMaxSize:        getEnvInt("CHUNK_MAX_SIZE", 1000),
		ChunkMinSize:        getEnvInt("CHUNK_MIN_SIZE", 300),
		RAGLimitPerCategory: getEnvInt("RAG_LIMIT_PER_CATEGORY", 5),
		IngestWorkers:       getEnvInt("INGEST_WORKERS", 2),
		IngestQueueSize:     getEnvInt("INGEST_QUEUE_SIZE", 64),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	switch c.StorageBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be local or s3, got %q", c.StorageBackend)
	}
	switch c.AIMode {
	case "stub", "gemini":
	default:
		return fmt.Errorf("AI_MODE must be stub or gemini, got %q", c.AIMode)
	}
	if c.ChunkMaxSize <= 0 {
		return fmt.Errorf("CHUNK_MAX_SIZE must be positive")
	}
	if c.ChunkMinSize > c.ChunkMaxSize {
		return fmt.Errorf("CHUNK_MIN_SIZE (%d) exceeds CHUNK_MAX_SIZE (%d)", c.ChunkMinSize, c.ChunkMaxSize)
	}
	return nil
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
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
