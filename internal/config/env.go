package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	PDFDirectory  string
	KnowledgePath string
	MaxChunkSize  int
	MinChunkSize  int

	RetrieveLimit int
	SearchLimit   int

	GeminiAPIKey string
	GeminiModel  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	ReingestIntervalMinutes int

	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		PDFDirectory:  getEnv("PDF_DIRECTORY", "data/pdf"),
		KnowledgePath: getEnv("KNOWLEDGE_BASE_PATH", "data/knowledge_base.json"),
		MaxChunkSize:  getEnvInt("MAX_CHUNK_SIZE", 800),
		MinChunkSize:  getEnvInt("MIN_CHUNK_SIZE", 50),

		RetrieveLimit: getEnvInt("RETRIEVE_LIMIT", 5),
		SearchLimit:   getEnvInt("SEARCH_LIMIT", 4),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		ReingestIntervalMinutes: getEnvInt("REINGEST_INTERVAL_MINUTES", 0),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}

	// GEMINI_API_KEY is validated where the client is constructed; the
	// ingest CLI runs without it.
	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
