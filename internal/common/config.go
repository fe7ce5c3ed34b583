package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	LLM       LLMConfig
	Storage   StorageConfig
	Queue     QueueConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	MaxUploadBytes int64
	CORSOrigins    []string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string // openai | gemini
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	JSONMode    bool
}

// StorageConfig holds uploaded-file storage configuration
type StorageConfig struct {
	Backend   string // local | s3 | minio
	LocalDir  string
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// QueueConfig holds background processing configuration
type QueueConfig struct {
	Backend         string // memory | asynq
	Workers         int
	Size            int
	PipelineTimeout time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// EventsConfig holds status-event publishing configuration
type EventsConfig struct {
	RabbitMQURL string
	Exchange    string
}

// RateLimitConfig bounds uploads per caller; disabled when Uploads <= 0 or no redis.
type RateLimitConfig struct {
	Uploads int
	Window  time.Duration
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string
	Format string // text | json
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is honored when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8080"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 5<<20),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      llmAPIKey(provider),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 4000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			MaxAttempts: getEnvAsInt("LLM_MAX_ATTEMPTS", 1),
			RetryDelay:  getEnvAsDuration("LLM_RETRY_DELAY", 500*time.Millisecond),
			JSONMode:    getEnvAsBool("LLM_JSON_MODE", false),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			LocalDir:  getEnv("UPLOAD_DIR", "./uploads"),
			Bucket:    getEnv("STORAGE_BUCKET", "resumes"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			Region:    getEnv("STORAGE_REGION", "auto"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:    getEnvAsBool("STORAGE_USE_SSL", true),
		},
		Queue: QueueConfig{
			Backend:         strings.ToLower(getEnv("QUEUE_BACKEND", "memory")),
			Workers:         getEnvAsInt("QUEUE_WORKERS", 4),
			Size:            getEnvAsInt("QUEUE_SIZE", 256),
			PipelineTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 3*time.Minute),
			RedisAddr:       getEnv("REDIS_ADDR", ""),
			RedisPassword:   getEnv("REDIS_PASSWORD", ""),
			RedisDB:         getEnvAsInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "resume_updates"),
		},
		RateLimit: RateLimitConfig{
			Uploads: getEnvAsInt("RATE_LIMIT_UPLOADS", 0),
			Window:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// llmAPIKey prefers LLM_API_KEY, then the provider's conventional variable.
func llmAPIKey(provider string) string {
	if v := getEnv("LLM_API_KEY", ""); v != "" {
		return v
	}
	if provider == "gemini" {
		return getEnv("GEMINI_API_KEY", "")
	}
	if v := getEnv("DEEPSEEK_API_KEY", ""); v != "" {
		return v
	}
	return getEnv("OPENAI_API_KEY", "")
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError(CodeConfig, "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError(CodeConfig, "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return NewAppError(CodeConfig, "UPLOAD_DIR is required for local storage", ErrInvalidInput)
		}
	case "s3", "minio":
		if c.Storage.Bucket == "" {
			return NewAppError(CodeConfig, "STORAGE_BUCKET is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "STORAGE_BACKEND must be local, s3 or minio", ErrInvalidInput)
	}
	switch c.Queue.Backend {
	case "memory":
	case "asynq":
		if c.Queue.RedisAddr == "" {
			return NewAppError(CodeConfig, "REDIS_ADDR is required for the asynq queue", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "QUEUE_BACKEND must be memory or asynq", ErrInvalidInput)
	}
	return nil
}

// Validate checks the AI provider settings; a missing credential is fatal.
func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "gemini":
	default:
		return NewAppError(CodeConfig, "LLM_PROVIDER must be openai or gemini", ErrInvalidInput)
	}
	if c.APIKey == "" {
		return NewAppError(CodeParsingFailed, "LLM API key is not configured", ErrInvalidInput)
	}
	if c.Timeout <= 0 {
		return NewAppError(CodeConfig, "LLM_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}
