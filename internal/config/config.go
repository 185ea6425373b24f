package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// devJWTSecret is the well-known secret local auth stacks ship with.
// Refusing to run production with it is the only hard validation here.
const devJWTSecret = "super-secret-jwt-token-with-at-least-32-characters-long"

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// Hosted auth provider configuration
	Auth AuthConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// Eligibility recompute configuration
	Eligibility EligibilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	Environment string // development, production
	SiteURL     string // public base URL, used for auth redirects
	DevDetails  bool   // expose the developer diagnostics endpoint

	// TLS fronting (optional - for Let's Encrypt via caddy)
	Domain           string
	LetsEncryptEmail string
}

// AuthConfig holds the hosted auth provider configuration
type AuthConfig struct {
	URL       string // provider base URL, e.g. https://xyz.supabase.co/auth/v1
	AnonKey   string // public API key sent with every provider request
	JWTSecret string // secret the provider signs access tokens with
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// EligibilityConfig holds background recompute configuration
type EligibilityConfig struct {
	RecomputeSchedule string // 5-field cron expression for nightly recompute
	SnapshotsKept     int    // snapshots retained per user by the prune task
	DefaultPolicy     string
	PolicyFile        string // optional YAML file overriding built-in policies
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:" + port
	}

	devDetails, _ := strconv.ParseBool(os.Getenv("SHOW_DEV_DETAILS"))

	// Auth provider - local GoTrue defaults keep development zero-config
	authURL := os.Getenv("AUTH_URL")
	if authURL == "" {
		authURL = "http://localhost:9999"
	}

	anonKey := os.Getenv("AUTH_ANON_KEY")

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = devJWTSecret
	}
	if environment == "production" && jwtSecret == devJWTSecret {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set in production")
	}

	// Database URL - default to absenced.sqlite in the working directory
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "absenced.sqlite"
	}

	// Redis address - default to localhost:6379, allow override for dev/docker
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	// Logging configuration - defaults suitable for production
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	recomputeSchedule := os.Getenv("RECOMPUTE_SCHEDULE")
	if recomputeSchedule == "" {
		recomputeSchedule = "30 4 * * *"
	}

	snapshotsKept := 30
	if v := os.Getenv("SNAPSHOTS_KEPT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("SNAPSHOTS_KEPT must be a positive integer, got %q", v)
		}
		snapshotsKept = n
	}

	defaultPolicy := os.Getenv("DEFAULT_POLICY")
	if defaultPolicy == "" {
		defaultPolicy = "standard"
	}

	return &Config{
		Server: ServerConfig{
			Port:             port,
			Environment:      environment,
			SiteURL:          siteURL,
			DevDetails:       devDetails,
			Domain:           os.Getenv("DOMAIN"),
			LetsEncryptEmail: os.Getenv("LETSENCRYPT_EMAIL"),
		},
		Auth: AuthConfig{
			URL:       authURL,
			AnonKey:   anonKey,
			JWTSecret: jwtSecret,
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		Eligibility: EligibilityConfig{
			RecomputeSchedule: recomputeSchedule,
			SnapshotsKept:     snapshotsKept,
			DefaultPolicy:     defaultPolicy,
			PolicyFile:        os.Getenv("POLICY_FILE"),
		},
	}, nil
}
