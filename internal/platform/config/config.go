package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LLM provider identifiers accepted by LLM_PROVIDER.
const (
	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"
	LLMProviderHTTP      = "http"
)

var errUnsupportedValue = errors.New("unsupported config value")

// Search provider identifiers accepted by SEARCH_PROVIDER.
const (
	SearchProviderScrape  = "scrape"
	SearchProviderSearxNG = "searxng"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Extraction model
	LLMProvider        string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey          string        `env:"LLM_API_KEY"`
	LLMModel           string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL         string        `env:"LLM_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	LLMMaxOutputTokens int           `env:"LLM_MAX_OUTPUT_TOKENS" envDefault:"2048"`
	LLMTimeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"90s"`
	AnthropicAPIKey    string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel     string        `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Search and scrape
	SearchProvider   string        `env:"SEARCH_PROVIDER" envDefault:"scrape"`
	SearchAPIKey     string        `env:"SEARCH_API_KEY"`
	SearchBaseURL    string        `env:"SEARCH_BASE_URL" envDefault:"https://api.firecrawl.dev"`
	SearchTimeout    time.Duration `env:"SEARCH_TIMEOUT" envDefault:"45s"`
	SearchRPS        float64       `env:"SEARCH_RPS" envDefault:"5"`
	SearxNGBaseURL   string        `env:"SEARXNG_BASE_URL" envDefault:"http://localhost:8888"`
	SearxNGEngines   []string      `env:"SEARXNG_ENGINES" envSeparator:","`
	WebFetchRPS      float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	WebFetchTimeout  time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"30s"`
	MaxContentLength int           `env:"MAX_CONTENT_LENGTH" envDefault:"20000"`
	CatalogPath      string        `env:"CATALOG_PATH"`
	CatalogHotReload bool          `env:"CATALOG_HOT_RELOAD" envDefault:"true"`

	// Delivery
	BotToken     string `env:"BOT_TOKEN"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Scheduling
	ScheduleTimezone      string        `env:"SCHEDULE_TIMEZONE" envDefault:"Asia/Jerusalem"`
	ScheduleTolerance     time.Duration `env:"SCHEDULE_TOLERANCE" envDefault:"15m"`
	SchedulerTickInterval time.Duration `env:"SCHEDULER_TICK_INTERVAL" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case LLMProviderOpenAI, LLMProviderAnthropic, LLMProviderHTTP:
	default:
		return fmt.Errorf("%w: LLM_PROVIDER=%q", errUnsupportedValue, c.LLMProvider)
	}

	switch c.SearchProvider {
	case SearchProviderScrape, SearchProviderSearxNG:
	default:
		return fmt.Errorf("%w: SEARCH_PROVIDER=%q", errUnsupportedValue, c.SearchProvider)
	}

	if _, err := time.LoadLocation(c.ScheduleTimezone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}

	return nil
}

// SMTPEnabled reports whether email delivery is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// applyAliases accepts the provider-specific variable names used by older deployments.
func applyAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}

	if !hasEnv("SEARCH_API_KEY") {
		setStringFromEnv("FIRECRAWL_API_KEY", &cfg.SearchAPIKey)
	}

	if !hasEnv("BOT_TOKEN") {
		setStringFromEnv("TELEGRAM_BOT_TOKEN", &cfg.BotToken)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
