package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	// Default redaction mode when a request does not name one: "MASK" or "REDACT".
	RedactionMode string
	// Requests whose text exceeds this many bytes are rejected. Zero disables the limit.
	MaxTextBytes int

	// AI Provider settings
	// Supported values: "GEMINI" (default), "OPENAI_COMPATIBLE", "BEDROCK"
	AIProvider string
	AITimeout  time.Duration

	// OpenAI-compatible settings (OpenAI, Ollama, vLLM, ...)
	AIModelURL  string
	AIAPIKey    string
	AIModelName string

	// Google Gemini settings
	GeminiBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	// AWS Bedrock settings (only used when AIProvider is "BEDROCK")
	BedrockRegion           string
	BedrockEndpointOverride string
	BedrockModelID          string

	// Detection cache. An empty RedisURL disables caching.
	RedisURL          string
	DetectionCacheTTL time.Duration

	Features FeatureFlags

	SIEMWebhookURL string
	AdminAPIKey    string
}

type FeatureFlags struct {
	SchemaValidationEnabled bool
}

var AppConfig *Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		RedactionMode: strings.ToUpper(getEnv("REDACTION_MODE", "MASK")),
		MaxTextBytes:  getEnvAsInt("MAX_TEXT_BYTES", 1<<20),

		AIProvider: strings.ToUpper(getEnv("AI_PROVIDER", "GEMINI")),
		AITimeout:  getEnvAsDuration("AI_TIMEOUT", 60*time.Second),

		AIModelURL:  getEnv("AI_MODEL_URL", "http://localhost:11434/v1"),
		AIAPIKey:    getEnv("AI_API_KEY", "ollama"), // Default to 'ollama' for local instances
		AIModelName: getEnv("AI_MODEL", "llama3"),

		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		BedrockRegion:           getEnv("AWS_BEDROCK_REGION", ""),
		BedrockEndpointOverride: getEnv("AWS_BEDROCK_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:          getEnv("AWS_BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0"),

		RedisURL:          getEnv("REDIS_URL", ""),
		DetectionCacheTTL: getEnvAsDuration("DETECTION_CACHE_TTL", time.Hour),

		Features: FeatureFlags{
			SchemaValidationEnabled: getEnvAsBool("FEATURE_JSON_SCHEMA_VALIDATION", true),
		},

		SIEMWebhookURL: getEnv("SIEM_WEBHOOK_URL", ""),
		AdminAPIKey:    getEnv("ADMIN_API_KEY", ""),
	}
}

func getEnvAsBool(key string, fallback bool) bool {
	val := getEnv(key, "")
	if val == "true" || val == "1" || val == "TRUE" {
		return true
	}
	if val == "false" || val == "0" || val == "FALSE" {
		return false
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Invalid int value for %s: %s (using fallback %d)", key, val, fallback)
		return fallback
	}
	return i
}

// getEnvAsDuration accepts Go durations ("90s", "1h") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration value for %s: %s (using fallback %s)", key, val, fallback)
	return fallback
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetRedisURL() string {
	return AppConfig.RedisURL
}
