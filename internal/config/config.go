package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	// Server side
	ServerAddr       string        `mapstructure:"SERVER_ADDR"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTTTLHours      int           `mapstructure:"JWT_TTL_HOURS"`
	StorageDriver    string        `mapstructure:"STORAGE_DRIVER"`
	BadgerDBPath     string        `mapstructure:"BADGERDB_PATH"`
	PostgresDSN      string        `mapstructure:"POSTGRES_DSN"`
	CORSOrigins      string        `mapstructure:"CORS_ORIGINS"`
	GCSchedule       string        `mapstructure:"GC_SCHEDULE"`
	ArticleCacheSize int           `mapstructure:"ARTICLE_CACHE_SIZE"`
	ArticleCacheTTL  time.Duration `mapstructure:"ARTICLE_CACHE_TTL"`

	// Gemini. An API key selects the Gemini API backend, otherwise a project selects Vertex AI.
	GeminiAPIKey        string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel         string `mapstructure:"GEMINI_MODEL"`
	GoogleCloudProject  string `mapstructure:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudLocation string `mapstructure:"GOOGLE_CLOUD_LOCATION"`

	// Client side
	APIBaseURL       string `mapstructure:"API_BASE_URL"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var keys = []string{
	"SERVER_ADDR", "JWT_SECRET", "JWT_TTL_HOURS", "STORAGE_DRIVER", "BADGERDB_PATH",
	"POSTGRES_DSN", "CORS_ORIGINS", "GC_SCHEDULE", "ARTICLE_CACHE_SIZE", "ARTICLE_CACHE_TTL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION",
	"API_BASE_URL", "TELEGRAM_BOT_TOKEN", "LOG_LEVEL",
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Unmarshal only sees env vars for keys viper already knows about.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("JWT_TTL_HOURS", 1)
	v.SetDefault("STORAGE_DRIVER", "badger")
	v.SetDefault("BADGERDB_PATH", "./badger_data")
	v.SetDefault("GC_SCHEDULE", "*/5 * * * *")
	v.SetDefault("ARTICLE_CACHE_SIZE", 256)
	v.SetDefault("ARTICLE_CACHE_TTL", time.Hour)
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GOOGLE_CLOUD_LOCATION", "us-central1")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")

	err = v.ReadInConfig()
	if err != nil {
		// A missing file is fine, everything can come from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))
	switch config.StorageDriver {
	case "badger", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", config.StorageDriver)
	}
	if config.JWTTTLHours <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL_HOURS must be positive")
	}

	return config, nil
}

// ValidateServer checks the settings `linkwise serve` cannot run without.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.StorageDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is not set")
	}
	return nil
}

// ValidateBot checks the settings `linkwise bot` cannot run without.
func (c Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	return nil
}

// CORSAllowlist splits CORS_ORIGINS on commas. An empty list allows every origin.
func (c Config) CORSAllowlist() []string {
	var out []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// JWTTTL is the lifetime of issued session tokens.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}
