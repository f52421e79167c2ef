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

// Config holds all the configuration variables for the profile-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	ClerkJWKSURL            string `mapstructure:"CLERK_JWKS_URL"`
	PinHashSalt             string `mapstructure:"PIN_HASH_SALT"`
	PinMaxAttempts          int    `mapstructure:"PIN_MAX_ATTEMPTS"`
	PinAttemptWindowSeconds int    `mapstructure:"PIN_ATTEMPT_WINDOW_SECONDS"`
	PaymShareBaseURL        string `mapstructure:"PAYM_SHARE_BASE_URL"`
	PaymSweepSchedule       string `mapstructure:"PAYM_SWEEP_SCHEDULE"`
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
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "paym:pin_rate_limit")
	viper.SetDefault("PIN_MAX_ATTEMPTS", 5)
	viper.SetDefault("PIN_ATTEMPT_WINDOW_SECONDS", 60)
	viper.SetDefault("PAYM_SHARE_BASE_URL", "https://paym.me")
	viper.SetDefault("PAYM_SWEEP_SCHEDULE", "@every 1m")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "PROFILE_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("PIN_HASH_SALT", "PIN_HASH_SALT", "PROFILE_PIN_HASH_SALT")
	_ = viper.BindEnv("PIN_MAX_ATTEMPTS")
	_ = viper.BindEnv("PIN_ATTEMPT_WINDOW_SECONDS")
	_ = viper.BindEnv("PAYM_SHARE_BASE_URL")
	_ = viper.BindEnv("PAYM_SWEEP_SCHEDULE")

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
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "paym:pin_rate_limit"
	}
	config.PinHashSalt = strings.TrimSpace(config.PinHashSalt)

	if config.PinMaxAttempts <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive PIN_MAX_ATTEMPTS; using default\" value=%d", config.PinMaxAttempts)
		config.PinMaxAttempts = 5
	}
	if config.PinAttemptWindowSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive PIN_ATTEMPT_WINDOW_SECONDS; using default\" value=%d", config.PinAttemptWindowSeconds)
		config.PinAttemptWindowSeconds = 60
	}
	config.PaymShareBaseURL = strings.TrimSuffix(strings.TrimSpace(config.PaymShareBaseURL), "/")
	if config.PaymShareBaseURL == "" {
		config.PaymShareBaseURL = "https://paym.me"
	}
	if strings.TrimSpace(config.PaymSweepSchedule) == "" {
		config.PaymSweepSchedule = "@every 1m"
	}

	return
}
