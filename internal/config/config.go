package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8000"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	JWTSecret          string `env:"JWT_SECRET"`
	TokenExpiryMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"1440"`

	GeminiAPIKeys string `env:"GEMINI_API_KEYS,required"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	SerpAPIKey    string `env:"SERPAPI_API_KEY,required"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@advista.app"`

	ChatTTLHours        int    `env:"CHAT_SESSION_TTL_HOURS" envDefault:"24"`
	PipelineWorkers     int    `env:"PIPELINE_WORKERS" envDefault:"4"`
	RateLimitPerMin     int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	SearchTimeoutSecs   int    `env:"SEARCH_TIMEOUT_SECONDS" envDefault:"60"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
	Environment         string `env:"APP_ENV" envDefault:"development"`
	DisableMailDelivery bool   `env:"DISABLE_MAIL_DELIVERY" envDefault:"false"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) ChatTTL() time.Duration {
	return time.Duration(c.ChatTTLHours) * time.Hour
}

func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpiryMinutes) * time.Minute
}

func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSecs) * time.Second
}

// LLMKeys splits the comma-separated key list used for rotation.
func (c *Config) LLMKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.GeminiAPIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate(isProduction bool) error {
	if len(c.LLMKeys()) == 0 {
		return fmt.Errorf("GEMINI_API_KEYS must contain at least one key")
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.SMTPHost == "" && !c.DisableMailDelivery {
			log.Warn().Msg("SMTP_HOST is empty in production: verification emails will fail")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
