// internal/config/config.go
// Configuration management using environment variables and optional config files

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Match       MatchConfig
	Subscriber  SubscriberConfig
	Features    FeatureFlags
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains all database connection settings
type DatabaseConfig struct {
	MySQL   MySQLConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
}

// MySQLConfig contains MySQL-specific settings. MySQL backs the History
// Archiver (tournament_matches, match_rounds_history).
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig contains MongoDB-specific settings. Mongo backs the
// read-only song catalog consulted by the Router.
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig contains Redis-specific settings. Redis backs the Match
// Actor's embedded per-actor storage and the rate limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig contains JWT validation settings for the Router's auth guard.
// Tokens are issued by the external identity system (out of scope, see
// spec.md §1); this service only validates them.
type AuthConfig struct {
	JWTSecret string
}

// MatchConfig holds the damage-engine tunables from spec.md §6.
type MatchConfig struct {
	InitialHealth        int
	MirrorHealthRestore  int
	MaxDamageDigit        int
	StandardRoundsCount  int
}

// SubscriberConfig controls the Subscriber Fan-out's per-connection buffer
// and overflow policy (spec.md §9 Design Notes: "document the policy").
type SubscriberConfig struct {
	BufferSize           int
	DropOldestOnOverflow bool
}

// FeatureFlags allows toggling features without code changes
type FeatureFlags struct {
	EnableWebSocket bool
	MaintenanceMode bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist in production
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			ReadTimeout:  getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				DSN:             getEnvOrDefault("MYSQL_DSN", ""),
				MaxOpenConns:    getIntOrDefault("MYSQL_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getIntOrDefault("MYSQL_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getDurationOrDefault("MYSQL_CONN_MAX_LIFETIME", 5*time.Minute),
			},
			MongoDB: MongoDBConfig{
				URI:      getEnvOrDefault("MONGO_URI", ""),
				Database: getEnvOrDefault("MONGO_DATABASE", "musicbattle"),
			},
			Redis: RedisConfig{
				Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
		},
		Match: MatchConfig{
			InitialHealth:       getIntOrDefault("MATCH_INITIAL_HEALTH", 100),
			MirrorHealthRestore: getIntOrDefault("MATCH_MIRROR_HEALTH_RESTORE", 20),
			MaxDamageDigit:      getIntOrDefault("MATCH_MAX_DAMAGE_DIGIT", 10),
			StandardRoundsCount: getIntOrDefault("MATCH_STANDARD_ROUNDS_COUNT", 6),
		},
		Subscriber: SubscriberConfig{
			BufferSize:           getIntOrDefault("SUBSCRIBER_BUFFER_SIZE", 16),
			DropOldestOnOverflow: getBoolOrDefault("SUBSCRIBER_DROP_OLDEST", true),
		},
		Features: FeatureFlags{
			EnableWebSocket: getBoolOrDefault("ENABLE_WEBSOCKET", true),
			MaintenanceMode: getBoolOrDefault("MAINTENANCE_MODE", false),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Database.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if c.Database.MongoDB.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Match.StandardRoundsCount <= 0 {
		return fmt.Errorf("MATCH_STANDARD_ROUNDS_COUNT must be positive")
	}
	return nil
}

// Helper functions to read environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
