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

// Config holds all the configuration variables for the fees-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	PaymentEventQueue       string `mapstructure:"PAYMENT_EVENT_QUEUE"`
	EventExchange           string `mapstructure:"EVENT_EXCHANGE"`
	AuthJWKSURL             string `mapstructure:"AUTH_JWKS_URL"`
	CORSAllowedOrigins      string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PaystackBaseURL         string `mapstructure:"PAYSTACK_BASE_URL"`
	FlutterwaveBaseURL      string `mapstructure:"FLUTTERWAVE_BASE_URL"`
	PaymentCallbackBaseURL  string `mapstructure:"PAYMENT_CALLBACK_BASE_URL"`
	StatsCacheTTLSeconds    int    `mapstructure:"STATS_CACHE_TTL_SECONDS"`
	PendingPaymentMaxAgeMin int    `mapstructure:"PENDING_PAYMENT_MAX_AGE_MINUTES"`
	ReconcileSchedule       string `mapstructure:"RECONCILE_SCHEDULE"`
	ReconcileBatchSize      int    `mapstructure:"RECONCILE_BATCH_SIZE"`
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
	viper.SetDefault("PAYMENT_EVENT_QUEUE", "fees_service.payment_updates")
	viper.SetDefault("EVENT_EXCHANGE", "classpoint.events")
	viper.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3")
	viper.SetDefault("STATS_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("PENDING_PAYMENT_MAX_AGE_MINUTES", 30)
	viper.SetDefault("RECONCILE_SCHEDULE", "*/10 * * * *")
	viper.SetDefault("RECONCILE_BATCH_SIZE", 100)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "FEES_REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_EVENT_QUEUE")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("PAYSTACK_BASE_URL")
	_ = viper.BindEnv("FLUTTERWAVE_BASE_URL")
	_ = viper.BindEnv("PAYMENT_CALLBACK_BASE_URL")
	_ = viper.BindEnv("STATS_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("PENDING_PAYMENT_MAX_AGE_MINUTES")
	_ = viper.BindEnv("RECONCILE_SCHEDULE")
	_ = viper.BindEnv("RECONCILE_BATCH_SIZE")

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
	config.CORSAllowedOrigins = strings.TrimSpace(config.CORSAllowedOrigins)

	if config.StatsCacheTTLSeconds <= 0 {
		config.StatsCacheTTLSeconds = 60
	}
	if config.PendingPaymentMaxAgeMin <= 0 {
		config.PendingPaymentMaxAgeMin = 30
	}
	if config.ReconcileBatchSize <= 0 {
		config.ReconcileBatchSize = 100
	}
	if strings.TrimSpace(config.ReconcileSchedule) == "" {
		config.ReconcileSchedule = "*/10 * * * *"
	}

	return
}

// AllowedOrigins splits the configured CORS origin list. An empty configuration
// means no browser origin is allowed.
func (c Config) AllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
