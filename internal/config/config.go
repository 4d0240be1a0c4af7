package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Session state and context window storage
	SessionBackend      string
	SessionsTable       string
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool
	ContextWindowSize   int
	ContextWindowTTL    time.Duration
	SessionCacheEnabled bool
	SessionCacheTTL     time.Duration

	// Booking persistence and reference data
	BookingsBackend         string
	DatabaseURL             string
	CatalogSource           string
	CatalogFile             string
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Generators
	LLMProvider         string
	LLMFallbackProvider string
	GeminiAPIKey        string
	GeminiModel         string
	BedrockModelID      string
	OllamaBaseURL       string
	OllamaModel         string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	GeneratorTimeout    time.Duration
	GeneratorMaxTokens  int

	// Routing
	UnpauseToken         string
	OperatorNumbers      []string
	ContactPhoneFallback string

	// Channels
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string
	TwilioSkipSignature bool
	NatsURL             string
	NatsSubject         string
	NatsQueueGroup      string
	NatsTimeout         time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins []string
	APIRateLimit       float64
	APIRateBurst       int

	// Staff notifications
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	HandoffEmails     []string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		SessionBackend:      strings.ToLower(getEnv("SESSION_BACKEND", "redis")),
		SessionsTable:       getEnv("SESSIONS_TABLE", "autoclinic-sessions"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		ContextWindowSize:   getEnvAsInt("CONTEXT_WINDOW_SIZE", 10),
		ContextWindowTTL:    getEnvAsDuration("CONTEXT_WINDOW_TTL", 7*24*time.Hour),
		SessionCacheEnabled: getEnvAsBool("SESSION_CACHE_ENABLED", false),
		SessionCacheTTL:     getEnvAsDuration("SESSION_CACHE_TTL", 2*time.Second),

		BookingsBackend:         strings.ToLower(getEnv("BOOKINGS_BACKEND", "postgres")),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		CatalogSource:           strings.ToLower(getEnv("CATALOG_SOURCE", "file")),
		CatalogFile:             getEnv("CATALOG_FILE", "configs/catalog.yaml"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		LLMProvider:         strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
		LLMFallbackProvider: strings.ToLower(getEnv("LLM_FALLBACK_PROVIDER", "")),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "deepseek-r1:7b"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeneratorTimeout:    getEnvAsDuration("GENERATOR_TIMEOUT", 30*time.Second),
		GeneratorMaxTokens:  getEnvAsInt("GENERATOR_MAX_TOKENS", 512),

		UnpauseToken:         getEnv("UNPAUSE_TOKEN", "**"),
		OperatorNumbers:      getEnvAsList("OPERATOR_NUMBERS"),
		ContactPhoneFallback: getEnv("CONTACT_PHONE_FALLBACK", "809-244-0055"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioSkipSignature: getEnvAsBool("TWILIO_SKIP_SIGNATURE", false),
		NatsURL:             getEnv("NATS_URL", "nats://localhost:4222"),
		NatsSubject:         getEnv("NATS_SUBJECT", "autoclinic.messages.inbound"),
		NatsQueueGroup:      getEnv("NATS_QUEUE_GROUP", "autoclinic-bot"),
		NatsTimeout:         getEnvAsDuration("NATS_TIMEOUT", 5*time.Second),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		APIRateLimit:       getEnvAsFloat("API_RATE_LIMIT", 2),
		APIRateBurst:       getEnvAsInt("API_RATE_BURST", 10),

		EmailProvider:     strings.ToLower(getEnv("EMAIL_PROVIDER", "")),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("EMAIL_FROM", "Autoclinicsfm@gmail.com"),
		SendGridFromName:  getEnv("EMAIL_FROM_NAME", "Auto Clinic RD"),
		HandoffEmails:     getEnvAsList("HANDOFF_EMAIL"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
