// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Actor     ActorConfig
	YouTube   YouTubeConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Mail      MailConfig
	Sync      SyncConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Server    ServerConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// ActorConfig contains the managed scraping/actor service configuration.
type ActorConfig struct {
	BaseURL        string
	Token          string
	InstagramActor string
	TikTokActor    string
	TwitterActor   string
	RequestTimeout time.Duration
}

// YouTubeConfig contains the YouTube Data API configuration.
type YouTubeConfig struct {
	APIKey string
}

// StorageConfig contains the object storage configuration for thumbnail hosting.
type StorageConfig struct {
	Bucket            string
	CredentialsFile   string
	ThumbnailMinBytes int
}

// RedisConfig contains the blacklist cache configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MailConfig contains the outbound notification mail configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Enabled  bool
}

// SyncConfig contains sync engine tuning and the trigger credential.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SyncConfig struct {
	TriggerToken     string
	AccountBatchSize int
	WriteChunkSize   int
	Schedule         string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "creator_tracker")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Actor service
	viper.SetDefault("actor.baseurl", "https://api.apify.com")
	viper.SetDefault("actor.instagramactor", "apify~instagram-scraper")
	viper.SetDefault("actor.tiktokactor", "clockworks~tiktok-scraper")
	viper.SetDefault("actor.twitteractor", "apidojo~tweet-scraper")
	viper.SetDefault("actor.requesttimeout", 5*time.Minute)

	// Storage
	viper.SetDefault("storage.bucket", "creator-tracker-thumbnails")
	viper.SetDefault("storage.thumbnailminbytes", 100)

	// Redis
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// Mail
	viper.SetDefault("mail.enabled", false)
	viper.SetDefault("mail.port", 587)

	// Sync
	viper.SetDefault("sync.accountbatchsize", 50)
	viper.SetDefault("sync.writechunksize", 500)
	viper.SetDefault("sync.schedule", "0 0 * * * *")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
