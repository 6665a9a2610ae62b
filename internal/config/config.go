package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// defaultSessionSecret is only acceptable outside production
const defaultSessionSecret = "your-secret-key-change-in-production"

type Config struct {
	Server   ServerConfig
	Web      WebConfig
	API      APIConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Database DatabaseConfig
	S3       S3Config
	Session  SessionConfig
	Auth     AuthConfig
	Booking  BookingConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string `validate:"required,numeric"`
	Host string
	Env  string `validate:"oneof=development production test"`
}

// WebConfig tunes the cart web front end
type WebConfig struct {
	// AllowedOrigins lists cross-origin callers; none are allowed by default
	AllowedOrigins []string
	// TrustProxy honours X-Forwarded-For when rate limiting. Enable it only
	// behind a reverse proxy that appends the peer address.
	TrustProxy bool
	// RateLimit is the number of cart writes a client may make per RateWindow
	RateLimit  int `validate:"min=0"`
	RateWindow time.Duration
}

// APIConfig points at the remote storefront API
type APIConfig struct {
	BaseURL string `validate:"required,url"`
	// ReadTimeout applies to idempotent reads only; reservation submission has no timeout
	ReadTimeout time.Duration
}

type StorageConfig struct {
	Backend string `validate:"oneof=file memory redis s3 postgres sqlite"`
	Dir     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	// SQLitePath is used when the storage backend is sqlite
	SQLitePath string
}

type S3Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Endpoint        string
	Prefix          string
}

type SessionConfig struct {
	Secret string
	Name   string
}

// AuthConfig locates the durable credential slot
type AuthConfig struct {
	CredentialDir string
}

type BookingConfig struct {
	RedirectTo    string
	RedirectDelay time.Duration
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	dataDir := getEnv("STOREFRONT_DATA_DIR", defaultDataDir())

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Web: WebConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
			TrustProxy:     getEnvAsBool("TRUST_PROXY_HEADERS", false),
			RateLimit:      getEnvAsInt("CART_RATE_LIMIT", 60),
			RateWindow:     getEnvAsDuration("CART_RATE_WINDOW", time.Minute),
		},
		API: APIConfig{
			BaseURL:     getEnv("STOREFRONT_API_URL", "http://localhost:8081"),
			ReadTimeout: getEnvAsDuration("STOREFRONT_API_READ_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "file"),
			Dir:     getEnv("STORAGE_DIR", dataDir),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "storefront:"),
		},
		Database: parseDatabaseConfig(dataDir),
		S3: S3Config{
			AccountID:       getEnv("S3_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("S3_BUCKET_NAME", "storefront-carts"),
			Region:          getEnv("S3_REGION", "auto"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Prefix:          getEnv("S3_PREFIX", ""),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", defaultSessionSecret),
			Name:   getEnv("SESSION_NAME", "storefront"),
		},
		Auth: AuthConfig{
			CredentialDir: getEnv("AUTH_CREDENTIAL_DIR", dataDir),
		},
		Booking: BookingConfig{
			RedirectTo:    getEnv("BOOKING_REDIRECT_TO", "/bookings"),
			RedirectDelay: getEnvAsDuration("BOOKING_REDIRECT_DELAY", 2*time.Second),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Server.Env == "production" && c.Session.Secret == defaultSessionSecret {
		return errors.New("invalid configuration: SESSION_SECRET must be set in production")
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "storefront"
	}
	return ".storefront"
}

func parseDatabaseConfig(dataDir string) DatabaseConfig {
	sqlitePath := getEnv("SQLITE_PATH", dataDir+string(os.PathSeparator)+"storefront.db")

	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		config := parseDatabaseURL(databaseURL)
		config.SQLitePath = sqlitePath
		return config
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       getEnvAsInt("DB_PORT", 5432),
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "storefront"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: sqlitePath,
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
