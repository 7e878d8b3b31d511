/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (with
 * an optional .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the feed-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	CoreBankAPIBaseURL      string `mapstructure:"COREBANK_API_BASE_URL"`
	CoreBankTimeoutSeconds  int    `mapstructure:"COREBANK_HTTP_TIMEOUT_SECONDS"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	SessionTTLMinutes       int    `mapstructure:"SESSION_TTL_MINUTES"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisSessionPrefix      string `mapstructure:"REDIS_SESSION_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	EventExchange           string `mapstructure:"EVENT_EXCHANGE"`
	CORSAllowedOrigins      string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	FeedOverfetchMultiplier int    `mapstructure:"FEED_OVERFETCH_MULTIPLIER"`
	FeedOverfetchFloor      int    `mapstructure:"FEED_OVERFETCH_FLOOR"`
}

// CoreBankTimeout returns the upstream transport deadline.
func (c Config) CoreBankTimeout() time.Duration {
	return time.Duration(c.CoreBankTimeoutSeconds) * time.Second
}

// SessionTTL returns how long session state may outlive its last refresh.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("COREBANK_API_BASE_URL", "http://localhost:8081")
	viper.SetDefault("COREBANK_HTTP_TIMEOUT_SECONDS", 15)
	viper.SetDefault("SESSION_TTL_MINUTES", 1440)
	viper.SetDefault("REDIS_SESSION_PREFIX", "lorettabank:feed:session")
	viper.SetDefault("EVENT_EXCHANGE", "feed.events")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("FEED_OVERFETCH_MULTIPLIER", 3)
	viper.SetDefault("FEED_OVERFETCH_FLOOR", 50)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("COREBANK_API_BASE_URL")
	_ = viper.BindEnv("COREBANK_HTTP_TIMEOUT_SECONDS")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("SESSION_TTL_MINUTES")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "FEED_REDIS_URL")
	_ = viper.BindEnv("REDIS_SESSION_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("FEED_OVERFETCH_MULTIPLIER")
	_ = viper.BindEnv("FEED_OVERFETCH_FLOOR")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.CoreBankAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.CoreBankAPIBaseURL), "/")
	config.RedisURL = strings.TrimSpace(config.RedisURL)

	if config.CoreBankTimeoutSeconds <= 0 {
		config.CoreBankTimeoutSeconds = 15
	}
	if config.SessionTTLMinutes <= 0 {
		config.SessionTTLMinutes = 1440
	}
	if config.FeedOverfetchMultiplier < 1 {
		log.Printf("level=warn component=config msg=\"invalid over-fetch multiplier; using default\" value=%d", config.FeedOverfetchMultiplier)
		config.FeedOverfetchMultiplier = 3
	}
	if config.FeedOverfetchFloor < 1 {
		log.Printf("level=warn component=config msg=\"invalid over-fetch floor; using default\" value=%d", config.FeedOverfetchFloor)
		config.FeedOverfetchFloor = 50
	}

	return
}
