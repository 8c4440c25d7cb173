package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pep299/random-user-aggregator/internal/cache"
	"github.com/pep299/random-user-aggregator/internal/countrylayer"
	"github.com/pep299/random-user-aggregator/internal/exchangerate"
	"github.com/pep299/random-user-aggregator/internal/newsapi"
	"github.com/pep299/random-user-aggregator/internal/randomuser"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Upstream API keys
	CountryLayerAPIKey string `json:"-"`
	ExchangeRateAPIKey string `json:"-"`
	NewsAPIKey         string `json:"-"`

	// Upstream endpoints
	RandomUserBaseURL   string `json:"randomuser_base_url"`
	CountryLayerBaseURL string `json:"countrylayer_base_url"`
	ExchangeRateBaseURL string `json:"exchangerate_base_url"`
	NewsAPIBaseURL      string `json:"newsapi_base_url"`

	// Upstream behaviour
	UpstreamTimeout       time.Duration `json:"upstream_timeout"`
	UpstreamRatePerSecond float64       `json:"upstream_rate_per_second"`
	UpstreamBurst         int           `json:"upstream_burst"`
	NewsPageSize          int           `json:"news_page_size"`
	NewsLimit             int           `json:"news_limit"`

	// Cache settings
	CacheType     string `json:"cache_type"`     // "memory", "redis" or "cloud-storage"
	CacheDuration int    `json:"cache_duration"` // in hours
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`
	CacheBucket   string `json:"cache_bucket"`

	// Rates warm-up
	RatesRefreshSchedule string   `json:"rates_refresh_schedule"`
	WarmCurrencies       []string `json:"warm_currencies"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Static files
	PublicDir string `json:"public_dir"`
	ViewsDir  string `json:"views_dir"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                  getEnvOrDefault("PORT", "3000"),
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		CountryLayerAPIKey:    getEnvOrDefault("COUNTRYLAYER_API_KEY", ""),
		ExchangeRateAPIKey:    getEnvOrDefault("EXCHANGERATE_API_KEY", ""),
		NewsAPIKey:            getEnvOrDefault("NEWSAPI_KEY", ""),
		RandomUserBaseURL:     getEnvOrDefault("RANDOMUSER_BASE_URL", randomuser.DefaultBaseURL),
		CountryLayerBaseURL:   getEnvOrDefault("COUNTRYLAYER_BASE_URL", countrylayer.DefaultBaseURL),
		ExchangeRateBaseURL:   getEnvOrDefault("EXCHANGERATE_BASE_URL", exchangerate.DefaultBaseURL),
		NewsAPIBaseURL:        getEnvOrDefault("NEWSAPI_BASE_URL", newsapi.DefaultBaseURL),
		UpstreamTimeout:       getEnvOrDefaultDuration("UPSTREAM_TIMEOUT_SECONDS", 10*time.Second),
		UpstreamRatePerSecond: getEnvOrDefaultFloat("UPSTREAM_RATE_PER_SECOND", 5),
		UpstreamBurst:         getEnvOrDefaultInt("UPSTREAM_BURST", 5),
		NewsPageSize:          getEnvOrDefaultInt("NEWS_PAGE_SIZE", newsapi.DefaultPageSize),
		NewsLimit:             getEnvOrDefaultInt("NEWS_LIMIT", 5),
		CacheType:             getEnvOrDefault("CACHE_TYPE", cache.TypeMemory),
		CacheDuration:         getEnvOrDefaultInt("CACHE_DURATION_HOURS", 24),
		RedisAddr:             getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:               getEnvOrDefaultInt("REDIS_DB", 0),
		CacheBucket:           getEnvOrDefault("CACHE_BUCKET", cache.DefaultBucket),
		RatesRefreshSchedule:  getEnvAllowEmpty("RATES_REFRESH_SCHEDULE", "0 */6 * * *"),
		WarmCurrencies:        parseStringSlice(getEnvOrDefault("WARM_CURRENCIES", "EUR,USD,GBP")),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "json"),
		PublicDir:             getEnvAllowEmpty("PUBLIC_DIR", "public"),
		ViewsDir:              getEnvAllowEmpty("VIEWS_DIR", "views"),
	}

	return config, config.validate()
}

// validate checks that configuration values are usable
func (c *Config) validate() error {
	switch c.CacheType {
	case cache.TypeMemory, cache.TypeRedis, cache.TypeCloudStorage:
	default:
		return &ConfigError{Field: "CACHE_TYPE", Message: fmt.Sprintf("unsupported cache type %q", c.CacheType)}
	}
	if c.UpstreamTimeout <= 0 {
		return &ConfigError{Field: "UPSTREAM_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if c.UpstreamRatePerSecond <= 0 {
		return &ConfigError{Field: "UPSTREAM_RATE_PER_SECOND", Message: "must be positive"}
	}
	if c.UpstreamBurst < 1 {
		return &ConfigError{Field: "UPSTREAM_BURST", Message: "must be at least 1"}
	}
	if c.NewsPageSize < 1 {
		return &ConfigError{Field: "NEWS_PAGE_SIZE", Message: "must be at least 1"}
	}
	if c.NewsLimit < 1 {
		return &ConfigError{Field: "NEWS_LIMIT", Message: "must be at least 1"}
	}
	if c.CacheDuration < 1 {
		return &ConfigError{Field: "CACHE_DURATION_HOURS", Message: "must be at least 1"}
	}
	return nil
}

// Warnings lists settings that leave part of the payload on fallbacks.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.CountryLayerAPIKey == "" {
		warnings = append(warnings, "COUNTRYLAYER_API_KEY is not set; country details will use fallbacks")
	}
	if c.ExchangeRateAPIKey == "" {
		warnings = append(warnings, "EXCHANGERATE_API_KEY is not set; exchange rates will use fallbacks")
	}
	if c.NewsAPIKey == "" {
		warnings = append(warnings, "NEWSAPI_KEY is not set; news will use fallbacks")
	}
	return warnings
}

// CacheTTL returns the cache duration as a time.Duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Hour
}

// CacheOptions builds the cache backend options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Type:          c.CacheType,
		Duration:      c.CacheTTL(),
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		Bucket:        c.CacheBucket,
	}
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is getEnvOrDefault except that a variable set to an empty
// string yields "". Used for settings where empty means disabled.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default if not set
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultDuration reads a whole number of seconds
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
