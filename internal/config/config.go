package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
)

type Config struct {
	// Discord Bot, disabled when empty
	DiscordToken string

	// Discord OAuth2, web login disabled when empty
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Database, in-memory rounds when empty
	DatabaseURL string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Game data
	MapsFile   string
	TweetsFile string
	RoundTTL   time.Duration
	// GuessRateLimit uses the limiter format, e.g. "30-M".
	GuessRateLimit string

	// Images
	ImageStore     string
	ImagesDir      string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	LogLevel  string
	LogFormat string
}

// OAuthEnabled reports whether Discord login is configured.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),

		MapsFile:       os.Getenv("MAPS_FILE"),
		TweetsFile:     getEnvDefault("TWEETS_FILE", "tweets.json"),
		RoundTTL:       getDurationEnv("ROUND_TTL", 30*time.Minute),
		GuessRateLimit: getRateEnv("GUESS_RATE_LIMIT", "30-M"),

		ImageStore:     getEnvDefault("IMAGE_STORE", "fs"),
		ImagesDir:      getEnvDefault("IMAGES_DIR", "img"),
		MinIOEndpoint:  getEnvDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnvDefault("MINIO_BUCKET", "tweetguessr"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		LogLevel:  getEnvDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvDefault("LOG_FORMAT", "text"),
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if (c.DiscordClientID == "") != (c.DiscordClientSecret == "") {
		return errors.New("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET must be set together")
	}
	switch c.ImageStore {
	case "fs":
	case "minio":
		if c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for IMAGE_STORE=minio")
		}
	default:
		return fmt.Errorf("IMAGE_STORE must be fs or minio, got %q", c.ImageStore)
	}
	if c.RoundTTL <= 0 {
		return fmt.Errorf("ROUND_TTL must be positive, got %v", c.RoundTTL)
	}
	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("Invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return duration
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getRateEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if _, err := limiter.NewRateFromFormatted(value); err != nil {
		logrus.Warnf("Invalid rate value for %s: %s, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return value
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
