package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Catalog sources
const (
	CatalogSourceEmbedded = "embedded"
	CatalogSourcePostgres = "postgres"
)

// DBConfig holds database configuration for the read-only catalog source
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port             string
	Env              string
	CORSAllowOrigins []string
	ShutdownTimeout  time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// SessionConfig holds search session configuration
type SessionConfig struct {
	SigningKey string
	TTL        time.Duration
	CacheSize  int
	Debounce   time.Duration
}

// GeminiConfig holds remote matcher configuration
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// Enabled reports whether an API key is configured
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

// QRConfig holds configuration of the hosted QR image service
type QRConfig struct {
	BaseURL       string
	Size          int
	Margin        int
	DefaultTarget string
}

// CatalogConfig selects where the inventory is read from
type CatalogConfig struct {
	Source string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	// EnvFile is the .env file that was read, empty when there was none
	EnvFile string
	DB      DBConfig
	Server  ServerConfig
	Log     LogConfig
	Metrics MetricsConfig
	Session SessionConfig
	Gemini  GeminiConfig
	QR      QRConfig
	Catalog CatalogConfig
}

// Load loads configuration from environment variables, reading .env first if present
func Load(serviceName string) (*Config, error) {
	envFile, err := loadEnvFile(".env")
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServiceName: serviceName,
		EnvFile:     envFile,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "8080"),
			Env:              getEnv("APP_ENV", "development"),
			CORSAllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
			ShutdownTimeout:  getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
		Session: SessionConfig{
			SigningKey: getEnv("SESSION_SIGNING_KEY", "defaultsecretkey"),
			TTL:        getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			CacheSize:  getEnvAsInt("SESSION_CACHE_SIZE", 1024),
			Debounce:   getEnvAsDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		},
		Gemini: GeminiConfig{
			APIKey:    getEnv("GEMINI_API_KEY", ""),
			BaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:   getEnvAsDuration("GEMINI_TIMEOUT", 15*time.Second),
			RateLimit: getEnvAsFloat("GEMINI_RATE_LIMIT", 2),
			RateBurst: getEnvAsInt("GEMINI_RATE_BURST", 4),
		},
		QR: QRConfig{
			BaseURL:       getEnv("QR_BASE_URL", "https://api.qrserver.com/v1/create-qr-code/"),
			Size:          getEnvAsInt("QR_SIZE", 300),
			Margin:        getEnvAsInt("QR_MARGIN", 10),
			DefaultTarget: getEnv("QR_DEFAULT_TARGET", "https://www.baidu.com"),
		},
		Catalog: CatalogConfig{
			Source: strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSourceEmbedded)),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// loadEnvFile reads path into the environment. A missing file is not an error.
func loadEnvFile(path string) (string, error) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return path, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogSourceEmbedded, CatalogSourcePostgres:
	default:
		return fmt.Errorf("invalid CATALOG_SOURCE %q: expected %q or %q",
			c.Catalog.Source, CatalogSourceEmbedded, CatalogSourcePostgres)
	}
	if c.Session.SigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY must not be empty")
	}
	if c.Server.Env == "production" && c.Session.SigningKey == "defaultsecretkey" {
		return fmt.Errorf("SESSION_SIGNING_KEY must be set in production")
	}
	return nil
}

// LogConfig returns the configuration as zap fields, without secrets
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("env_file", c.EnvFile),
		zap.String("server_port", c.Server.Port),
		zap.String("catalog_source", c.Catalog.Source),
		zap.Bool("ai_search_enabled", c.Gemini.Enabled()),
		zap.String("gemini_model", c.Gemini.Model),
		zap.Duration("session_ttl", c.Session.TTL),
		zap.Int("session_cache_size", c.Session.CacheSize),
		zap.Duration("search_debounce", c.Session.Debounce),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as floats
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma separated environment variables
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
