package config

import (
	"os"
	"strings"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/spf13/viper"
)

const (
	EnrichModeMissingOnly = "missing_only"
	EnrichModeAlways      = "always"
)

type Config struct {
	Server struct {
		Port               string
		ReadTimeoutSeconds int
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	App struct {
		Name                     string
		Version                  string
		APIName                  string
		LogLevel                 string
		LogFormat                string
		HTTPClientTimeoutSeconds int
	}
	Gemini struct {
		APIKey        string
		Model         string
		BaseURL       string
		RetryAttempts int
	}
	Places struct {
		APIKey           string
		TextSearchURL    string
		DetailsURL       string
		EnableEnrichment bool
		EnrichMode       string
		MaxEnrich        int
		Concurrency      int
	}
	Queries struct {
		ZipTemplate       string
		CityStateTemplate string
	}
	RateLimit struct {
		RequestsPerMinute int
	}
	CORS struct {
		AllowOrigins     []string
		AllowMethods     []string
		AllowHeaders     []string
		ExposeHeaders    []string
		AllowCredentials bool
		MaxAgeSeconds    int
	}
	Health struct {
		CheckIntervalSeconds int
	}
	Migrations struct {
		Path string
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("app.name", "BudgetBitesAPI")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.api_name", "UFA - Budget Bite API")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.http_client_timeout_seconds", 15)
	v.SetDefault("providers.google.generative_ai.model", "gemini-2.5-flash")
	v.SetDefault("providers.google.generative_ai.retry_attempts", 2)
	v.SetDefault("providers.google.places.text_search_url", "https://maps.googleapis.com/maps/api/place/textsearch/json")
	v.SetDefault("providers.google.places.details_url", "https://maps.googleapis.com/maps/api/place/details/json")
	v.SetDefault("places.enable_enrichment", true)
	v.SetDefault("places.enrich_mode", EnrichModeMissingOnly)
	v.SetDefault("places.max_enrich_per_request", 15)
	v.SetDefault("places.concurrency", 5)
	v.SetDefault("ratelimit.requests_per_minute", 30)
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.expose_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age_seconds", 600)
	v.SetDefault("health.check_interval_seconds", 60)
	v.SetDefault("migrations.path", "./migrations")
}

// Load reads config.yaml from the working directory (or ./config) and applies
// environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.ReadTimeoutSeconds = v.GetInt("server.read_timeout_seconds")
	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")

	config.App.Name = v.GetString("app.name")
	config.App.Version = v.GetString("app.version")
	config.App.APIName = v.GetString("app.api_name")
	config.App.LogLevel = v.GetString("app.log_level")
	config.App.LogFormat = v.GetString("app.log_format")
	config.App.HTTPClientTimeoutSeconds = v.GetInt("app.http_client_timeout_seconds")
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		config.App.LogLevel = lvl
	}

	config.Gemini.APIKey = v.GetString("providers.google.generative_ai.api_key")
	config.Gemini.Model = v.GetString("providers.google.generative_ai.model")
	config.Gemini.BaseURL = v.GetString("providers.google.generative_ai.base_url")
	config.Gemini.RetryAttempts = v.GetInt("providers.google.generative_ai.retry_attempts")
	if key := os.Getenv("GOOGLE_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("GOOGLE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	config.Places.APIKey = v.GetString("providers.google.places.api_key")
	if key := os.Getenv("GOOGLE_PLACES_API_KEY"); key != "" {
		config.Places.APIKey = key
	}
	if config.Places.APIKey == "" {
		config.Places.APIKey = config.Gemini.APIKey
	}
	config.Places.TextSearchURL = v.GetString("providers.google.places.text_search_url")
	config.Places.DetailsURL = v.GetString("providers.google.places.details_url")
	config.Places.EnableEnrichment = v.GetBool("places.enable_enrichment")
	config.Places.EnrichMode = v.GetString("places.enrich_mode")
	config.Places.MaxEnrich = v.GetInt("places.max_enrich_per_request")
	config.Places.Concurrency = v.GetInt("places.concurrency")

	config.Queries.ZipTemplate = v.GetString("queries.zip_template")
	config.Queries.CityStateTemplate = v.GetString("queries.city_state_template")

	config.RateLimit.RequestsPerMinute = v.GetInt("ratelimit.requests_per_minute")

	config.CORS.AllowOrigins = v.GetStringSlice("cors.allow_origins")
	config.CORS.AllowMethods = v.GetStringSlice("cors.allow_methods")
	config.CORS.AllowHeaders = v.GetStringSlice("cors.allow_headers")
	config.CORS.ExposeHeaders = v.GetStringSlice("cors.expose_headers")
	config.CORS.AllowCredentials = v.GetBool("cors.allow_credentials")
	config.CORS.MaxAgeSeconds = v.GetInt("cors.max_age_seconds")

	config.Health.CheckIntervalSeconds = v.GetInt("health.check_interval_seconds")
	config.Migrations.Path = v.GetString("migrations.path")

	return &config
}

// HTTPTimeout is the per-call timeout for outbound provider requests.
func (c *Config) HTTPTimeout() time.Duration {
	if c.App.HTTPClientTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.App.HTTPClientTimeoutSeconds) * time.Second
}

// ValidateSearch reports the settings the search pipeline cannot run without.
// An empty result means the configuration is usable.
func (c *Config) ValidateSearch() []models.ValidationIssue {
	var issues []models.ValidationIssue

	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		issues = append(issues, models.ValidationIssue{
			Field:   "providers.google.generative_ai.api_key",
			Message: "Gemini API key configuration is required",
		})
	}
	if strings.TrimSpace(c.Gemini.Model) == "" {
		issues = append(issues, models.ValidationIssue{
			Field:   "providers.google.generative_ai.model",
			Message: "Gemini model name configuration is required",
		})
	}
	if strings.TrimSpace(c.Queries.ZipTemplate) == "" {
		issues = append(issues, models.ValidationIssue{
			Field:   "queries.zip_template",
			Message: "Zip code query template is required",
		})
	}

	return issues
}
