// Package config loads service settings from .env, an optional YAML file and
// the process environment, in that order of precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"logLevel"`

	OpenWeatherAPIKey    string `yaml:"openWeatherApiKey"`
	TomTomAPIKey         string `yaml:"tomtomApiKey"`
	GoogleAPIKey         string `yaml:"googleApiKey"`
	GoogleMapsBrowserKey string `yaml:"googleMapsBrowserKey"`

	TomTomBaseURL      string `yaml:"tomtomBaseUrl"`
	GoogleBaseURL      string `yaml:"googleBaseUrl"`
	OpenWeatherBaseURL string `yaml:"openWeatherBaseUrl"`

	DatabaseURL string `yaml:"databaseUrl"`
	DBMigrate   bool   `yaml:"dbMigrate"`
	RedisURL    string `yaml:"redisUrl"`

	RateRPS   float64 `yaml:"rateRps"`
	RateBurst int     `yaml:"rateBurst"`

	UpstreamTimeout time.Duration `yaml:"upstreamTimeout"`
	UpstreamRPS     float64       `yaml:"upstreamRps"`

	MaxRoutes    int           `yaml:"maxRoutes"`
	SampleEvery  int           `yaml:"sampleEvery"`
	MaxLocations int           `yaml:"maxLocations"`
	Concurrency  int           `yaml:"concurrency"`
	CacheTTL     time.Duration `yaml:"cacheTtl"`

	StaticDir string `yaml:"staticDir"`

	WebhookURL         string `yaml:"webhookUrl"`
	WebhookSecret      string `yaml:"webhookSecret"`
	WebhookMaxAttempts int    `yaml:"webhookMaxAttempts"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Port:               "5000",
		Env:                "production",
		LogLevel:           "info",
		TomTomBaseURL:      "https://api.tomtom.com",
		GoogleBaseURL:      "https://maps.googleapis.com",
		OpenWeatherBaseURL: "https://api.openweathermap.org",
		DBMigrate:          true,
		RateRPS:            5,
		RateBurst:          10,
		UpstreamTimeout:    10 * time.Second,
		UpstreamRPS:        20,
		MaxRoutes:          3,
		SampleEvery:        100,
		MaxLocations:       5,
		Concurrency:        8,
		CacheTTL:           6 * time.Hour,
		WebhookMaxAttempts: 5,
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then environment
// variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays YAML settings from path onto cfg.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.MaxRoutes <= 0 {
		return fmt.Errorf("maxRoutes must be > 0")
	}
	if c.SampleEvery <= 0 {
		return fmt.Errorf("sampleEvery must be > 0")
	}
	if c.MaxLocations < 0 {
		return fmt.Errorf("maxLocations must be >= 0")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0")
	}
	if c.WebhookURL != "" && c.WebhookMaxAttempts <= 0 {
		return fmt.Errorf("webhookMaxAttempts must be > 0")
	}
	if c.RateRPS < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limits must be >= 0")
	}
	return nil
}

// Development reports whether the service runs in a dev environment.
func (c Config) Development() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

func applyEnv(c *Config) error {
	str := map[string]*string{
		"PORT":                    &c.Port,
		"APP_ENV":                 &c.Env,
		"LOG_LEVEL":               &c.LogLevel,
		"OPEN_WEATHER_API_KEY":    &c.OpenWeatherAPIKey,
		"TOMTOM_API_KEY":          &c.TomTomAPIKey,
		"GOOGLE_API_KEY":          &c.GoogleAPIKey,
		"GOOGLE_MAPS_BROWSER_KEY": &c.GoogleMapsBrowserKey,
		"TOMTOM_BASE_URL":         &c.TomTomBaseURL,
		"GOOGLE_BASE_URL":         &c.GoogleBaseURL,
		"OPEN_WEATHER_BASE_URL":   &c.OpenWeatherBaseURL,
		"DATABASE_URL":            &c.DatabaseURL,
		"REDIS_URL":               &c.RedisURL,
		"STATIC_DIR":              &c.StaticDir,
		"WEBHOOK_URL":             &c.WebhookURL,
		"WEBHOOK_SECRET":          &c.WebhookSecret,
	}
	for k, p := range str {
		if v, ok := os.LookupEnv(k); ok {
			*p = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"RATE_BURST":    &c.RateBurst,
		"MAX_ROUTES":    &c.MaxRoutes,
		"SAMPLE_EVERY":  &c.SampleEvery,
		"MAX_LOCATIONS": &c.MaxLocations,
		"CONCURRENCY":   &c.Concurrency,

		"WEBHOOK_MAX_ATTEMPTS": &c.WebhookMaxAttempts,
	}
	for k, p := range ints {
		if v := os.Getenv(k); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*p = n
		}
	}

	floats := map[string]*float64{
		"RATE_RPS":     &c.RateRPS,
		"UPSTREAM_RPS": &c.UpstreamRPS,
	}
	for k, p := range floats {
		if v := os.Getenv(k); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*p = f
		}
	}

	durs := map[string]*time.Duration{
		"UPSTREAM_TIMEOUT": &c.UpstreamTimeout,
		"CACHE_TTL":        &c.CacheTTL,
	}
	for k, p := range durs {
		if v := os.Getenv(k); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*p = d
		}
	}

	if v := os.Getenv("DB_MIGRATE"); v != "" {
		c.DBMigrate = v != "false" && v != "0"
	}
	return nil
}
