package internal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Session       SessionConfig       `mapstructure:"session"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	// EncryptionKey is the hex master key protecting stored secrets.
	EncryptionKey string        `mapstructure:"encryption_key" validate:"required,min=64"`
	CronKey       string        `mapstructure:"cron_key" validate:"required,min=32"`
	CronTokenTTL  time.Duration `mapstructure:"cron_token_ttl"`
	BCryptCost    int           `mapstructure:"bcrypt_cost" validate:"min=10,max=15"`
}

type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieDomain string        `mapstructure:"cookie_domain"`
	TTL          time.Duration `mapstructure:"ttl"`
	TrustProxy   bool          `mapstructure:"trust_proxy"`
	Store        string        `mapstructure:"store" validate:"oneof=postgres memory"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

const (
	DefaultSessionCookieName = "agency_dash_sess"
	DefaultSessionTTL        = 12 * time.Hour
	DefaultCronTokenTTL      = 10 * time.Minute
	DefaultBCryptCost        = 12
)

// LoadConfigFromEnv builds the configuration for container deployments where
// no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", ""),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("APP_ENC_KEY", ""),
			CronKey:       getEnv("CRON_KEY", ""),
			CronTokenTTL:  getEnvAsDuration("CRON_TOKEN_TTL", DefaultCronTokenTTL),
			BCryptCost:    getEnvAsInt("BCRYPT_COST", DefaultBCryptCost),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_NAME", DefaultSessionCookieName),
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
			TTL:          getEnvAsDuration("SESSION_TTL", DefaultSessionTTL),
			TrustProxy:   getEnv("SESSION_TRUST_PROXY", "false") == "true",
			Store:        getEnv("SESSION_STORE", "postgres"),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	return cfg
}

// ApplyDefaults fills optional values left empty by the config file.
func (c *Config) ApplyDefaults() {
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultSessionCookieName
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.Store == "" {
		c.Session.Store = "postgres"
	}
	if c.Security.CronTokenTTL <= 0 {
		c.Security.CronTokenTTL = DefaultCronTokenTTL
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = DefaultBCryptCost
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Session.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("session config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

// Validate rejects a master key that is not hex or shorter than 32 bytes.
// The server refuses to start rather than failing on the first encrypt call.
func (c *SecurityConfig) Validate() error {
	key, err := hex.DecodeString(strings.TrimSpace(c.EncryptionKey))
	if err != nil {
		return errors.New("encryption_key must be a hex string")
	}
	if len(key) < 32 {
		return errors.New("encryption_key must decode to at least 32 bytes (64 hex chars)")
	}
	if len(c.CronKey) < 32 {
		return errors.New("cron_key must be at least 32 characters")
	}
	if c.BCryptCost != 0 && (c.BCryptCost < 10 || c.BCryptCost > 15) {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	return nil
}

func (c *SessionConfig) Validate() error {
	if strings.ContainsAny(c.CookieName, " ;,=") {
		return fmt.Errorf("invalid cookie_name %q", c.CookieName)
	}
	switch c.Store {
	case "", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported session store %q", c.Store)
	}
	return nil
}
