package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Gateway definition sources.
const (
	SourceFile = "file"
	SourceDB   = "db"
)

type Config struct {
	App struct {
		Name string
		Env  string
	}

	API struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
	}

	Log struct {
		Level  string
		Format string
		Output string
	}

	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		LogSQL   bool
	}

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	Gateways struct {
		// Source is SourceFile or SourceDB.
		Source string
		File   string
		// Default is the gateway Send uses when the caller names none.
		Default string
	}

	Health struct {
		Enabled  bool
		Interval time.Duration
		Timeout  time.Duration
	}

	Worker struct {
		MaxWorkers        int
		PerMessageTimeout time.Duration
		MaxBulk           int
	}

	Cache struct {
		SentTTL time.Duration
	}

	Metrics struct {
		Enabled bool
	}
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Name = getEnv("APP_NAME", "polysms")
	cfg.App.Env = getEnv("APP_ENV", "development")

	// API
	cfg.API.Host = getEnv("API_HOST", "0.0.0.0")
	cfg.API.Port = getEnv("API_PORT", "8080")
	cfg.API.ShutdownTimeout = getDuration("API_SHUTDOWN_TIMEOUT", 10*time.Second)

	// Logging
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.Output = getEnv("LOG_OUTPUT", "stdout")

	// DB
	cfg.DB.Host = getEnv("DB_HOST", "db")
	cfg.DB.Port = getInt("DB_PORT", 5432)
	cfg.DB.User = getEnv("DB_USER", "root")
	cfg.DB.Password = getEnv("DB_PASSWORD", "123456")
	cfg.DB.Name = getEnv("DB_NAME", "db_polysms")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.DB.MaxConns = getInt("DB_MAX_CONNS", 10)
	cfg.DB.LogSQL = getBool("DB_LOG_SQL", false)

	// Redis
	cfg.Redis.Enabled = getBool("REDIS_ENABLED", true)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "redis:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	// Gateways
	cfg.Gateways.Source = strings.ToLower(getEnv("GATEWAYS_SOURCE", SourceFile))
	cfg.Gateways.File = getEnv("GATEWAYS_FILE", "gateways.yaml")
	cfg.Gateways.Default = getEnv("GATEWAYS_DEFAULT", "")

	// Health probing
	cfg.Health.Enabled = getBool("HEALTH_PROBE_ENABLED", true)
	cfg.Health.Interval = getDuration("HEALTH_PROBE_INTERVAL", time.Minute)
	cfg.Health.Timeout = getDuration("HEALTH_PROBE_TIMEOUT", 10*time.Second)

	// Bulk sending
	cfg.Worker.MaxWorkers = getInt("SEND_MAX_WORKERS", 4)
	cfg.Worker.PerMessageTimeout = getDuration("SEND_PER_MESSAGE_TIMEOUT", 30*time.Second)
	cfg.Worker.MaxBulk = getInt("SEND_MAX_BULK", 500)

	// Cache
	cfg.Cache.SentTTL = getDuration("CACHE_SENT_TTL", 24*time.Hour)

	// Metrics
	cfg.Metrics.Enabled = getBool("METRICS_ENABLED", true)

	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error

	if c.API.Port == "" {
		errs = multierr.Append(errs, errors.New("API_PORT must be set"))
	} else if p, err := strconv.Atoi(c.API.Port); err != nil || p <= 0 || p > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("API_PORT %q is not a valid port", c.API.Port))
	}

	switch c.Gateways.Source {
	case SourceFile:
		if c.Gateways.File == "" {
			errs = multierr.Append(errs, errors.New("GATEWAYS_FILE must be set when GATEWAYS_SOURCE=file"))
		}
	case SourceDB:
		if c.DB.Host == "" || c.DB.Name == "" {
			errs = multierr.Append(errs, errors.New("DB_HOST and DB_NAME must be set when GATEWAYS_SOURCE=db"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("GATEWAYS_SOURCE %q must be %q or %q", c.Gateways.Source, SourceFile, SourceDB))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = multierr.Append(errs, errors.New("REDIS_ADDR must be set when REDIS_ENABLED"))
	}
	if c.Health.Enabled && c.Health.Interval <= 0 {
		errs = multierr.Append(errs, errors.New("HEALTH_PROBE_INTERVAL must be positive"))
	}
	if c.Worker.MaxWorkers <= 0 {
		errs = multierr.Append(errs, errors.New("SEND_MAX_WORKERS must be positive"))
	}
	if c.Worker.PerMessageTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("SEND_PER_MESSAGE_TIMEOUT must be positive"))
	}
	if c.Worker.MaxBulk <= 0 {
		errs = multierr.Append(errs, errors.New("SEND_MAX_BULK must be positive"))
	}

	return errs
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.API.Host, c.API.Port)
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return isTruthy(v)
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}
