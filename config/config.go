package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers understood by storage.Open
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort     string   `yaml:"server_port"`
	ServerHost     string   `yaml:"server_host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	CookieSecure   bool     `yaml:"cookie_secure"`

	// Upstream meal API
	APIBaseURL     string        `yaml:"api_base_url"`
	APITimeout     time.Duration `yaml:"api_timeout"`
	APITokenSecret string        `yaml:"-"`

	// Local persistence
	StoreDriver string `yaml:"store_driver"`
	SQLitePath  string `yaml:"sqlite_path"`

	// Database configuration
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"-"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_ssl_mode"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`
	RedisURL      string `yaml:"redis_url"`

	// Meal submissions allowed per user per hour, 0 disables the limiter
	SubmitRateLimit int `yaml:"submit_rate_limit"`

	// Meal image presigning
	S3Bucket  string `yaml:"s3_bucket"`
	AWSRegion string `yaml:"aws_region"`
}

func defaultConfig() *Config {
	return &Config{
		ServerPort:     "8080",
		ServerHost:     "0.0.0.0",
		AllowedOrigins: []string{"http://localhost:5173"},
		APIBaseURL:     "http://localhost:8000/api",
		APITimeout:     30 * time.Second,
		StoreDriver:    StoreSQLite,
		SQLitePath:     "caltrack.sqlite3",
		DBPort:         "5432",
		DBSSLMode:      "disable",
		RedisPort:      "6379",
	}
}

// LoadConfig builds a Config from defaults, an optional .env file, an optional
// YAML file named by CONFIG_FILE, environment variables and secrets.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment configuration: %w", err)
	}

	// Load sensitive values based on environment
	switch env {
	case CI:
		loadCISecrets(cfg)
	case Development, Test:
		loadDevSecrets(cfg)
	case Production:
		loadProdSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays a YAML file; ${VAR} references are expanded first
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.ServerHost, "SERVER_HOST")
	setString(&cfg.APIBaseURL, "API_BASE_URL")
	setString(&cfg.StoreDriver, "STORE_DRIVER")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSL_MODE")
	setString(&cfg.RedisHost, "REDIS_HOST")
	setString(&cfg.RedisPort, "REDIS_PORT")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.S3Bucket, "S3_BUCKET_NAME")
	setString(&cfg.AWSRegion, "AWS_REGION")

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if v := os.Getenv("API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT %q: %w", v, err)
		}
		cfg.APITimeout = d
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}
	if v := os.Getenv("SUBMIT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SUBMIT_RATE_LIMIT %q: %w", v, err)
		}
		cfg.SubmitRateLimit = n
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q: %w", v, err)
		}
		cfg.CookieSecure = secure
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// loadCISecrets reads sensitive values from GitHub Actions secrets exposed as env vars
func loadCISecrets(cfg *Config) {
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.APITokenSecret = os.Getenv("TEST_API_TOKEN_SECRET")
}

// loadDevSecrets prefers environment variables and falls back to Docker secrets
func loadDevSecrets(cfg *Config) {
	cfg.DBPassword = firstNonEmpty(os.Getenv("DB_PASSWORD"), readSecret("db_password"))
	cfg.RedisPassword = firstNonEmpty(os.Getenv("REDIS_PASSWORD"), readSecret("redis_password"))
	cfg.APITokenSecret = firstNonEmpty(os.Getenv("API_TOKEN_SECRET"), readSecret("api_token_secret"))
}

// loadProdSecrets loads sensitive values using ONLY Docker secrets
func loadProdSecrets(cfg *Config) {
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.APITokenSecret = readSecret("api_token_secret")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
