package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSymptomsURL   = "https://raw.githubusercontent.com/Hacker-Here/Static_Health_Database/main/disease_symptoms.json"
	DefaultPreventionURL = "https://raw.githubusercontent.com/Hacker-Here/Static_Health_Database/main/disease_preventions.json"
	DefaultOutbreakURL   = "https://www.who.int/api/news/diseaseoutbreaknews"
	DefaultOutbreakBase  = "https://www.who.int/emergencies/disease-outbreak-news/item"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName             string        `mapstructure:"app_name"`
	Env                 string        `mapstructure:"app_env"`
	LogLevel            string        `mapstructure:"log_level"`
	HTTPAddr            string        `mapstructure:"http_addr"`
	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	UserAgent           string        `mapstructure:"user_agent"`

	SymptomsURL   string `mapstructure:"symptoms_url"`
	PreventionURL string `mapstructure:"prevention_url"`
	SourcesFile   string `mapstructure:"sources_file"`

	OutbreakFeedURL  string `mapstructure:"outbreak_feed_url"`
	OutbreakFeedType string `mapstructure:"outbreak_feed_type"`
	OutbreakLinkBase string `mapstructure:"outbreak_link_base"`
	OutbreakPageSize int    `mapstructure:"outbreak_page_size"`

	CacheType            string        `mapstructure:"cache_type"`
	CacheBBoltPath       string        `mapstructure:"cache_bbolt_path"`
	CacheTTLSeconds      int64         `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds  int64         `mapstructure:"cache_cleanup_interval_seconds"`
	CacheTTL             time.Duration `mapstructure:"-"`
	CacheCleanupInterval time.Duration `mapstructure:"-"`

	NLUType                   string        `mapstructure:"nlu_type"`
	NLUWebhookURL             string        `mapstructure:"nlu_webhook_url"`
	NLUTimeoutSeconds         int64         `mapstructure:"nlu_timeout_seconds"`
	NLUTimeout                time.Duration `mapstructure:"-"`
	DialogflowProjectID       string        `mapstructure:"dialogflow_project_id"`
	DialogflowLanguage        string        `mapstructure:"dialogflow_language"`
	DialogflowCredentialsFile string        `mapstructure:"dialogflow_credentials_file"`
	OpenAIAPIKey              string        `mapstructure:"openai_api_key"`
	OpenAIModel               string        `mapstructure:"openai_model"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "arogya-bot")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":5000")
	v.SetDefault("fetch_timeout_seconds", 10)
	v.SetDefault("user_agent", "arogya-bot/1.0")

	v.SetDefault("symptoms_url", DefaultSymptomsURL)
	v.SetDefault("prevention_url", DefaultPreventionURL)
	v.SetDefault("sources_file", "")

	v.SetDefault("outbreak_feed_url", DefaultOutbreakURL)
	v.SetDefault("outbreak_feed_type", "who_json")
	v.SetDefault("outbreak_link_base", DefaultOutbreakBase)
	v.SetDefault("outbreak_page_size", 5)

	v.SetDefault("cache_type", "memory")
	v.SetDefault("cache_bbolt_path", "./data/cache.db")
	v.SetDefault("cache_ttl_seconds", 0) // never expire
	v.SetDefault("cache_cleanup_interval_seconds", int64((time.Hour)/time.Second))

	v.SetDefault("nlu_type", "webhook")
	v.SetDefault("nlu_webhook_url", "")
	v.SetDefault("nlu_timeout_seconds", 10)
	v.SetDefault("dialogflow_project_id", "")
	v.SetDefault("dialogflow_language", "en")
	v.SetDefault("dialogflow_credentials_file", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")

	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.NLUTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid nlu_timeout_seconds (must be positive seconds)")
	}
	cfg.NLUTimeout = time.Duration(cfg.NLUTimeoutSeconds) * time.Second

	if cfg.CacheTTLSeconds < 0 {
		return fmt.Errorf("invalid cache_ttl_seconds (must be zero or positive seconds)")
	}
	if cfg.CacheCleanupSeconds <= 0 {
		return fmt.Errorf("invalid cache_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.CacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	cfg.CacheCleanupInterval = time.Duration(cfg.CacheCleanupSeconds) * time.Second

	if cfg.OutbreakPageSize <= 0 {
		return fmt.Errorf("invalid outbreak_page_size (must be positive)")
	}

	cfg.OutbreakFeedType = strings.ToLower(strings.TrimSpace(cfg.OutbreakFeedType))
	cfg.CacheType = strings.ToLower(strings.TrimSpace(cfg.CacheType))
	cfg.NLUType = strings.ToLower(strings.TrimSpace(cfg.NLUType))

	return nil
}
