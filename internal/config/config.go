package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
	StoreBackendMongo  = "mongo"
)

// DefaultStorageKey is the key holding the JSON array of records in the
// key-value backends.
const DefaultStorageKey = "@cadastro:records"

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port            int           `json:"port"`
	Environment     string        `json:"environment"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Record store configuration
	StoreBackend string `json:"store_backend"`
	StorageKey   string `json:"storage_key"`

	// MongoDB configuration
	MongoURI         string `json:"mongo_uri"`
	MongoDatabase    string `json:"mongo_database"`
	RecordCollection string `json:"mongo_record_collection"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Tracing configuration
	TracingEnabled     bool    `json:"tracing_enabled"`
	TracingEndpoint    string  `json:"tracing_endpoint"`
	TracingSampleRatio float64 `json:"tracing_sample_ratio"` // share of root traces kept, 0 to 1
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(getEnvOrDefault("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	tracingEnabled, err := strconv.ParseBool(getEnvOrDefault("TRACING_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("invalid TRACING_ENABLED: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(getEnvOrDefault("TRACING_SAMPLE_RATIO", "1"), 64)
	if err != nil || sampleRatio < 0 || sampleRatio > 1 {
		return fmt.Errorf("invalid TRACING_SAMPLE_RATIO: must be a number between 0 and 1")
	}

	backend := strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreBackendMemory))
	switch backend {
	case StoreBackendMemory, StoreBackendRedis, StoreBackendMongo:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: must be one of memory, redis, mongo", backend)
	}

	storageKey := getEnvOrDefault("STORAGE_KEY", DefaultStorageKey)
	if strings.TrimSpace(storageKey) == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}

	AppConfig = &Config{
		// Server configuration
		Port:            port,
		Environment:     getEnvOrDefault("ENVIRONMENT", "development"),
		ShutdownTimeout: shutdownTimeout,

		// Record store configuration
		StoreBackend: backend,
		StorageKey:   storageKey,

		// MongoDB configuration
		MongoURI:         getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnvOrDefault("MONGODB_DATABASE", "cadastro"),
		RecordCollection: getEnvOrDefault("MONGODB_RECORD_COLLECTION", "records"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Tracing configuration
		TracingEnabled:     tracingEnabled,
		TracingEndpoint:    getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
		TracingSampleRatio: sampleRatio,
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
