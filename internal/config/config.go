package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Ai          AIConfig
	Cot         CotConfig
	ToolGateway ToolGatewayConfig
	Resilience  ResilienceConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama"
	OllamaBaseURL     string
	EmbeddingModel    string
	LLMProvider       string // "ollama"
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

type CotConfig struct {
	SystemMaxDepth int
	DefaultTopK    int
}

type ToolGatewayConfig struct {
	BaseURL        string
	BearerToken    string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	MaxRetries     int
}

type ResilienceConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Cot: CotConfig{
			SystemMaxDepth: getEnvAsInt("COT_MAX_DEPTH", 5),
			DefaultTopK:    getEnvAsInt("SEARCH_DEFAULT_TOP_K", 10),
		},
		ToolGateway: ToolGatewayConfig{
			BaseURL:        getEnv("TOOL_GATEWAY_URL", ""),
			BearerToken:    getEnv("TOOL_GATEWAY_TOKEN", ""),
			RequestTimeout: getEnvAsDuration("TOOL_GATEWAY_TIMEOUT", 30*time.Second),
			HealthTimeout:  getEnvAsDuration("TOOL_GATEWAY_HEALTH_TIMEOUT", 3*time.Second),
			MaxRetries:     getEnvAsInt("TOOL_GATEWAY_MAX_RETRIES", 3),
		},
		Resilience: ResilienceConfig{
			FailureThreshold: getEnvAsInt("CIRCUIT_FAILURE_THRESHOLD", 5),
			RecoveryTimeout:  getEnvAsDuration("CIRCUIT_RECOVERY_TIMEOUT", 60*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
