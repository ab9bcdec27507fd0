// config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Annany2002/schema-designer-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Defaults applied when the environment leaves a value unset
const (
	DefaultServerPort     = "8080"
	DefaultDatabaseURL    = "sqlite://data/schema_designer.db"
	DefaultSMTPServer     = "smtp.gmail.com"
	DefaultSMTPPort       = 587
	DefaultFrontendURL    = "http://localhost:3000"
	DefaultJWTExpiration  = 30 * time.Minute
	DefaultLoginRateLimit = 10
)

// Config holds application configuration values.
// It is built once at startup and handed to every component that needs it.
type Config struct {
	ServerPort  string
	AppEnv      string
	LogLevel    string
	DatabaseURL string

	JWTSecret     string
	JWTExpiration time.Duration

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FrontendURL  string

	CORSAllowedOrigins []string
	LoginRateLimit     int // requests per minute per client IP on POST /token

	RedisAddr     string // empty disables the notification queue
	RedisPassword string
	RedisDB       int
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")
	loadDotEnv()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}

	frontendURL := strings.TrimRight(getEnv("FRONTEND_URL", DefaultFrontendURL), "/")

	cfg := &Config{
		ServerPort:         strings.TrimPrefix(getEnv("SERVER_PORT", DefaultServerPort), ":"),
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", DefaultDatabaseURL),
		JWTSecret:          jwtSecret,
		JWTExpiration:      time.Minute * time.Duration(getEnvInt("JWT_EXPIRATION_MINUTES", int(DefaultJWTExpiration/time.Minute), 1)),
		SMTPServer:         getEnv("SMTP_SERVER", DefaultSMTPServer),
		SMTPPort:           getEnvInt("SMTP_PORT", DefaultSMTPPort, 1),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		FrontendURL:        frontendURL,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", frontendURL)),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", DefaultLoginRateLimit, 0),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0, 0),
	}

	if jwtSecret == "!!replace_this_with_a_real_secret_key!!" {
		customLog.Warnln("WARNING: JWT_SECRET is set to the default placeholder!")
	}
	if !cfg.SMTPConfigured() {
		customLog.Warnln("SMTP_USERNAME/SMTP_PASSWORD not set; notification emails will not be delivered")
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, JWT Exp: %v, Queue: %t", cfg.ServerPort, cfg.JWTExpiration, cfg.QueueEnabled())
	return cfg, nil
}

// LoadSMTPConfig loads only the notification settings. It does not require
// JWT_SECRET, so tooling can check mail delivery without a full setup.
func LoadSMTPConfig() *Config {
	loadDotEnv()
	return &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SMTPServer:   getEnv("SMTP_SERVER", DefaultSMTPServer),
		SMTPPort:     getEnvInt("SMTP_PORT", DefaultSMTPPort, 1),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FrontendURL:  strings.TrimRight(getEnv("FRONTEND_URL", DefaultFrontendURL), "/"),
	}
}

func loadDotEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		customLog.Warnf("Warning: Error loading .env file: %v", err)
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}

// SMTPConfigured reports whether both SMTP credentials are present.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// QueueEnabled reports whether notifications go through the Redis-backed queue.
func (c *Config) QueueEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// getEnvInt reads an integer no smaller than minimum, falling back (with a
// warning) on bad input.
func getEnvInt(key string, fallback, minimum int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(raw) == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		customLog.Warnf("Invalid %s '%s'. Using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	if value < minimum {
		customLog.Warnf("Invalid %s '%s': must be at least %d. Using default %d.", key, raw, minimum, fallback)
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}
