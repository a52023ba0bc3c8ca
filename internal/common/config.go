package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// StorageConfig holds object-storage (MinIO) configuration
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LLMConfig holds LLM gateway configuration
type LLMConfig struct {
	BaseURL        string
	Model          string
	Temperature    float64
	TopP           float64
	CallTimeout    time.Duration
	HealthTimeout  time.Duration
	HealthInterval time.Duration
	HealthWait     time.Duration
}

// PipelineConfig holds worker/orchestrator configuration
type PipelineConfig struct {
	Workers          int
	MaxInFlight      int64
	PollBackoff      time.Duration
	PostJobSleep     time.Duration
	JobTimeout       time.Duration
	MaxAttempts      int
	PromptCharBudget int
	SchemaDir        string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "uploads"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:          getEnv("OLLAMA_MODEL", "llama3.1"),
			Temperature:    getEnvAsFloat64("OLLAMA_TEMPERATURE", 0.0),
			TopP:           getEnvAsFloat64("OLLAMA_TOP_P", 0.9),
			CallTimeout:    getEnvAsDuration("OLLAMA_TIMEOUT", 2*time.Minute),
			HealthTimeout:  getEnvAsDuration("OLLAMA_HEALTH_TIMEOUT", 5*time.Second),
			HealthInterval: getEnvAsDuration("OLLAMA_HEALTH_INTERVAL", 2*time.Second),
			HealthWait:     getEnvAsDuration("OLLAMA_HEALTH_WAIT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:          getEnvAsInt("PIPELINE_WORKERS", 2),
			MaxInFlight:      int64(getEnvAsInt("PIPELINE_MAX_IN_FLIGHT", 4)),
			PollBackoff:      getEnvAsDuration("PIPELINE_POLL_BACKOFF", 3*time.Second),
			PostJobSleep:     getEnvAsDuration("PIPELINE_POST_JOB_SLEEP", 2*time.Second),
			JobTimeout:       getEnvAsDuration("PIPELINE_JOB_TIMEOUT", 15*time.Minute),
			MaxAttempts:      getEnvAsInt("PIPELINE_MAX_ATTEMPTS", 3),
			PromptCharBudget: getEnvAsInt("PIPELINE_PROMPT_CHAR_BUDGET", 12000),
			SchemaDir:        getEnv("SCHEMA_DIR", "./spec/json-schema"),
		},
	}
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Storage.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "MINIO_ENDPOINT is required", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_URL is required", ErrInvalidInput)
	}
	if c.Pipeline.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
