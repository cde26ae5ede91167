package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	ServerPort  string
	BaseURL     string
	FrontendURL string

	// Git store for the published site.
	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	ContentRoot  string

	// Suggestion engine.
	OpenAIKey   string
	OpenAIModel string
	AIBaseURL   string

	// Captcha on the public suggestion endpoint.
	RecaptchaSecret   string
	RecaptchaMinScore float64

	// Operator authentication.
	OIDCIssuer   string
	OIDCAudience string
	OIDCJWKSURL  string
	// Sub or email of the site operator. Empty disables auth, which is
	// only reasonable behind a private network.
	OperatorSubject string

	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		GitHubToken:       getEnv("GITHUB_TOKEN", ""),
		GitHubOwner:       getEnv("GITHUB_OWNER", ""),
		GitHubRepo:        getEnv("GITHUB_REPO", ""),
		GitHubBranch:      getEnv("GITHUB_BRANCH", "main"),
		ContentRoot:       getEnv("CONTENT_ROOT", "content"),
		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", ""),
		AIBaseURL:         getEnv("AI_BASE_URL", ""),
		RecaptchaSecret:   getEnv("RECAPTCHA_SECRET", ""),
		RecaptchaMinScore: getEnvFloat("RECAPTCHA_MIN_SCORE", 0.5),
		OIDCIssuer:        getEnv("OIDC_ISSUER", ""),
		OIDCAudience:      getEnv("OIDC_AUDIENCE", ""),
		OIDCJWKSURL:       getEnv("OIDC_JWKS_URL", ""),
		OperatorSubject:   getEnv("OPERATOR_SUBJECT", ""),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.OIDCJWKSURL == "" && cfg.OIDCIssuer != "" {
		cfg.OIDCJWKSURL = cfg.OIDCIssuer + "/.well-known/jwks.json"
	}

	return cfg, nil
}

// PublishingConfigured reports whether the Git store credentials are
// present. Without them publish operations fail fast.
func (c *Config) PublishingConfigured() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
