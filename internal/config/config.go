/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the onboarding-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	EventQueue string `mapstructure:"EVENT_QUEUE"`

	MonoAPIBaseURL       string `mapstructure:"MONO_API_BASE_URL"`
	MonoAPIKey           string `mapstructure:"MONO_API_KEY"`
	MonoWebhookSecret    string `mapstructure:"MONO_WEBHOOK_SECRET"`
	OnepipeAPIBaseURL    string `mapstructure:"ONEPIPE_API_BASE_URL"`
	OnepipeAPIKey        string `mapstructure:"ONEPIPE_API_KEY"`
	OnepipeWebhookSecret string `mapstructure:"ONEPIPE_WEBHOOK_SECRET"`

	ServiceJWTSecret string `mapstructure:"SERVICE_JWT_SECRET"`
	AllowedOrigins   string `mapstructure:"ALLOWED_ORIGINS"`

	DefaultProvider      string `mapstructure:"DEFAULT_PROVIDER"`
	CollectionAccount    string `mapstructure:"COLLECTION_ACCOUNT"`
	MandateMaxAmountKobo int64  `mapstructure:"MANDATE_MAX_AMOUNT_KOBO"`
	MandateExpiryDays    int    `mapstructure:"MANDATE_EXPIRY_DAYS"`

	SagaTimeoutMinutes   int    `mapstructure:"SAGA_TIMEOUT_MINUTES"`
	SagaSweepSchedule    string `mapstructure:"SAGA_SWEEP_SCHEDULE"`
	WebhookDedupeTTLMin  int    `mapstructure:"WEBHOOK_DEDUPE_TTL_MINUTES"`
	QuickReplyTTLMinutes int    `mapstructure:"QUICK_REPLY_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("EVENT_QUEUE", "onboarding_service.events")
	viper.SetDefault("MONO_API_BASE_URL", "https://api.withmono.com")
	viper.SetDefault("ONEPIPE_API_BASE_URL", "https://api.onepipe.io")
	viper.SetDefault("DEFAULT_PROVIDER", "mono")
	viper.SetDefault("MANDATE_MAX_AMOUNT_KOBO", 50000000) // 500,000 NGN
	viper.SetDefault("MANDATE_EXPIRY_DAYS", 365)
	viper.SetDefault("SAGA_TIMEOUT_MINUTES", 30)
	viper.SetDefault("SAGA_SWEEP_SCHEDULE", "*/5 * * * *")
	viper.SetDefault("WEBHOOK_DEDUPE_TTL_MINUTES", 1440)
	viper.SetDefault("QUICK_REPLY_TTL_MINUTES", 60)
	viper.SetDefault("ALLOWED_ORIGINS", "*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "ONBOARDING_REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_QUEUE")
	_ = viper.BindEnv("MONO_API_BASE_URL")
	_ = viper.BindEnv("MONO_API_KEY")
	_ = viper.BindEnv("MONO_WEBHOOK_SECRET")
	_ = viper.BindEnv("ONEPIPE_API_BASE_URL")
	_ = viper.BindEnv("ONEPIPE_API_KEY")
	_ = viper.BindEnv("ONEPIPE_WEBHOOK_SECRET")
	_ = viper.BindEnv("SERVICE_JWT_SECRET", "SERVICE_JWT_SECRET", "ONBOARDING_SERVICE_JWT_SECRET")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("DEFAULT_PROVIDER")
	_ = viper.BindEnv("COLLECTION_ACCOUNT")
	_ = viper.BindEnv("MANDATE_MAX_AMOUNT_KOBO")
	_ = viper.BindEnv("MANDATE_EXPIRY_DAYS")
	_ = viper.BindEnv("SAGA_TIMEOUT_MINUTES")
	_ = viper.BindEnv("SAGA_SWEEP_SCHEDULE")
	_ = viper.BindEnv("WEBHOOK_DEDUPE_TTL_MINUTES")
	_ = viper.BindEnv("QUICK_REPLY_TTL_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.DefaultProvider = strings.TrimSpace(strings.ToLower(config.DefaultProvider))
	if config.DefaultProvider == "" {
		config.DefaultProvider = "mono"
	}

	if config.MandateMaxAmountKobo <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive mandate cap configured; using default\" max_amount_kobo=%d", config.MandateMaxAmountKobo)
		config.MandateMaxAmountKobo = 50000000
	}
	if config.MandateExpiryDays <= 0 {
		config.MandateExpiryDays = 365
	}
	if config.SagaTimeoutMinutes <= 0 {
		config.SagaTimeoutMinutes = 30
	}
	if config.WebhookDedupeTTLMin <= 0 {
		config.WebhookDedupeTTLMin = 1440
	}
	if config.QuickReplyTTLMinutes <= 0 {
		config.QuickReplyTTLMinutes = 60
	}
	if strings.TrimSpace(config.SagaSweepSchedule) == "" {
		config.SagaSweepSchedule = "*/5 * * * *"
	}

	return
}

// Origins splits the configured comma-separated origin list.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
