package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type MongoConfig struct {
	URI string
	DB  string
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	RateLimitPerMin int
}

type RabbitConfig struct {
	URL         string
	Exchange    string
	Queue       string
	BindKey     string
	Concurrency int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
}

type ScraperConfig struct {
	Live           bool
	SampleDataPath string
	RunOnStart     bool
}

type Config struct {
	Environment string
	Port        string
	CORSOrigins []string
	Mongo       MongoConfig
	Auth        AuthConfig
	RedisAddr   string
	Rabbit      RabbitConfig
	Google      GoogleConfig
	Scraper     ScraperConfig
	DDAgentHost string
	// MetricsAddr is where the scraper and notifier expose /metrics; empty disables it.
	MetricsAddr string
}

func (c *Config) Production() bool { return c.Environment == "production" }

// Load reads app.env (if present) and the process environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "afrioffres")
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("RATE_LIMIT_PER_MIN", 20)
	v.SetDefault("RABBIT_EXCHANGE", "tenders.events")
	v.SetDefault("RABBIT_QUEUE", "tenders.notify")
	v.SetDefault("RABBIT_BIND_KEY", "tenders.scraped")
	v.SetDefault("RABBIT_CONCURRENCY", 4)
	v.SetDefault("SAMPLE_DATA_PATH", "data/sample_tenders.json")
	v.SetDefault("SCRAPER_RUN_ON_START", true)
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("METRICS_ADDR", ":9100")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read app.env: %w", err)
		}
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		Port:        v.GetString("APP_PORT"),
		CORSOrigins: parseList(v.GetString("CORS_ORIGINS")),
		Mongo: MongoConfig{
			URI: v.GetString("MONGO_URI"),
			DB:  v.GetString("MONGO_DB"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("JWT_SECRET_KEY"),
			TokenTTL:        time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,
			RateLimitPerMin: v.GetInt("RATE_LIMIT_PER_MIN"),
		},
		RedisAddr: v.GetString("REDIS_ADDR"),
		Rabbit: RabbitConfig{
			URL:         v.GetString("RABBIT_URL"),
			Exchange:    v.GetString("RABBIT_EXCHANGE"),
			Queue:       v.GetString("RABBIT_QUEUE"),
			BindKey:     v.GetString("RABBIT_BIND_KEY"),
			Concurrency: v.GetInt("RABBIT_CONCURRENCY"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
			StateSecret:  v.GetString("OAUTH_STATE_SECRET"),
		},
		Scraper: ScraperConfig{
			Live:           v.GetBool("SCRAPER_LIVE"),
			SampleDataPath: v.GetString("SAMPLE_DATA_PATH"),
			RunOnStart:     v.GetBool("SCRAPER_RUN_ON_START"),
		},
		DDAgentHost: v.GetString("DD_AGENT_HOST"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
	}

	if cfg.Auth.JWTSecret == "" && !cfg.Production() {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Google.StateSecret == "" {
		cfg.Google.StateSecret = cfg.Auth.JWTSecret
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.Google.ClientID != "" && cfg.Google.RedirectURL == "" {
		return fmt.Errorf("GOOGLE_REDIRECT_URL is required when GOOGLE_CLIENT_ID is set")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
