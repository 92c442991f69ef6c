package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	AIProviderBackend = "backend"
	AIProviderOpenAI  = "openai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                 string
	Port                   string
	LoginURL               string
	IdentityPublishableKey string
	IdentityIssuer         string
	BackendBaseURL         string
	BackendTimeout         time.Duration
	DatabaseURL            string
	AIProvider             string
	AIKeyRequired          bool
	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAIBaseURL          string
	CORSAllowedOrigins     []string
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	HTTPIdleTimeout        time.Duration
	RateLimitPerMin        int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8080"),
		LoginURL:               getEnv("LOGIN_URL", "/login"),
		IdentityPublishableKey: strings.TrimSpace(os.Getenv("IDENTITY_PUBLISHABLE_KEY")),
		IdentityIssuer:         strings.TrimRight(os.Getenv("IDENTITY_ISSUER"), "/"),
		BackendBaseURL:         strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:3000"), "/"),
		BackendTimeout:         time.Second * time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 30)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		AIProvider:             strings.ToLower(getEnv("AI_PROVIDER", AIProviderBackend)),
		AIKeyRequired:          getEnvBool("AI_KEY_REQUIRED", false),
		OpenAIAPIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		CORSAllowedOrigins:     splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.IdentityPublishableKey == "" {
		return nil, fmt.Errorf("IDENTITY_PUBLISHABLE_KEY is required")
	}

	switch cfg.AIProvider {
	case AIProviderBackend, AIProviderOpenAI:
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}

	if cfg.AIKeyRequired && !cfg.HasOpenAIKey() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

// HasOpenAIKey treats the literal "undefined" left behind by some env
// templating as a missing key.
func (c *Config) HasOpenAIKey() bool {
	return c.OpenAIAPIKey != "" && c.OpenAIAPIKey != "undefined"
}

// AIDegraded reports whether the openai provider was selected without a
// usable key. The web tier keeps serving through the backend proxy and shows
// a banner instead of failing at boot. The backend provider holds its own key.
func (c *Config) AIDegraded() bool {
	return c.AIProvider == AIProviderOpenAI && !c.HasOpenAIKey()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
