package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the configuration for the selected store driver and
// returns every problem found at once.
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"API_BASE_URL", fmt.Sprintf("must be an absolute URL, got %q", cfg.APIBaseURL)})
	}

	if cfg.APITimeout <= 0 {
		errs = append(errs, ValidationError{"API_TIMEOUT", "must be positive"})
	}

	if cfg.SubmitRateLimit < 0 {
		errs = append(errs, ValidationError{"SUBMIT_RATE_LIMIT", "must not be negative"})
	}

	switch cfg.StoreDriver {
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for the sqlite store"})
		}
	case StorePostgres:
		for field, value := range map[string]string{
			"DB_HOST":     cfg.DBHost,
			"DB_PORT":     cfg.DBPort,
			"DB_USER":     cfg.DBUser,
			"DB_NAME":     cfg.DBName,
			"db_password": cfg.DBPassword,
		} {
			if value == "" {
				errs = append(errs, ValidationError{field, "is required for the postgres store"})
			}
		}
	case StoreRedis:
		if cfg.RedisURL == "" && cfg.RedisHost == "" {
			errs = append(errs, ValidationError{"REDIS_HOST", "REDIS_HOST or REDIS_URL is required for the redis store"})
		}
	default:
		errs = append(errs, ValidationError{"STORE_DRIVER", fmt.Sprintf("unknown driver %q", cfg.StoreDriver)})
	}

	// The submission limiter keeps its counters in redis
	if cfg.SubmitRateLimit > 0 && cfg.RedisURL == "" && cfg.RedisHost == "" {
		errs = append(errs, ValidationError{"SUBMIT_RATE_LIMIT", "requires REDIS_HOST or REDIS_URL"})
	}

	if len(errs) > 0 {
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}
