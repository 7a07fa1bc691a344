// Package config loads service configuration from defaults, an optional YAML
// file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable pointing at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverDynamo   = "dynamodb"
)

// Config aggregates runtime configuration.
type Config struct {
	Environment  string       `koanf:"environment"`
	BaseURL      string       `koanf:"base_url"`
	BaseURLLocal string       `koanf:"base_url_local"`
	Server       ServerConfig `koanf:"server"`
	Auth         AuthConfig   `koanf:"auth"`
	Store        StoreConfig  `koanf:"store"`
	Kafka        KafkaConfig  `koanf:"kafka"`
	Logging      LogConfig    `koanf:"logging"`
	CORS         CORSConfig   `koanf:"cors"`
	RateLimit    RateConfig   `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// AuthConfig holds identity provider settings.
type AuthConfig struct {
	// Domain is the issuer host, e.g. tenant.us.auth0.com.
	Domain       string `koanf:"domain"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Audience     string `koanf:"audience"`

	// SessionSecret signs the browser session cookie.
	SessionSecret string `koanf:"session_secret"`
	// JWTSecret enables HS256 bearer tokens for local development.
	JWTSecret    string        `koanf:"jwt_secret"`
	JWKSCacheTTL time.Duration `koanf:"jwks_cache_ttl"`
}

// StoreConfig selects and configures the document gateway backend.
type StoreConfig struct {
	Driver         string `koanf:"driver"`
	BadgerPath     string `koanf:"badger_path"`
	PostgresDSN    string `koanf:"postgres_dsn"`
	DynamoTable    string `koanf:"dynamodb_table"`
	DynamoRegion   string `koanf:"dynamodb_region"`
	DynamoEndpoint string `koanf:"dynamodb_endpoint"`
}

// KafkaConfig enables lifecycle events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateConfig limits requests per client IP; zero disables limiting.
type RateConfig struct {
	RequestsPerMinute int `koanf:"requests_per_minute"`
}

func defaultConfig() Config {
	return Config{
		Environment:  "development",
		BaseURLLocal: "http://localhost:8080",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth:  AuthConfig{JWKSCacheTTL: 15 * time.Minute},
		Store: StoreConfig{Driver: DriverMemory, DynamoTable: "rest-between-sets"},
		Kafka: KafkaConfig{WriteTimeout: 5 * time.Second},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// sliceConfigPaths are accepted as comma separated strings from the environment.
var sliceConfigPaths = []string{"kafka.brokers", "cors.allowed_origins"}

// envMappings maps environment variables (lowercased) onto config paths.
var envMappings = map[string]string{
	"port":                  "server.port",
	"environment":           "environment",
	"base_url":              "base_url",
	"base_url_local":        "base_url_local",
	"domain":                "auth.domain",
	"client_id":             "auth.client_id",
	"client_secret":         "auth.client_secret",
	"audience":              "auth.audience",
	"long_random_string":    "auth.session_secret",
	"jwt_secret":            "auth.jwt_secret",
	"jwks_cache_ttl":        "auth.jwks_cache_ttl",
	"store_driver":          "store.driver",
	"badger_path":           "store.badger_path",
	"database_url":          "store.postgres_dsn",
	"dynamodb_table":        "store.dynamodb_table",
	"aws_region":            "store.dynamodb_region",
	"dynamodb_endpoint":     "store.dynamodb_endpoint",
	"kafka_brokers":         "kafka.brokers",
	"kafka_write_timeout":   "kafka.write_timeout",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"cors_allowed_origins":  "cors.allowed_origins",
	"rate_limit_per_minute": "rate_limit.requests_per_minute",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks driver specific requirements.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverBadger:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres driver"))
		}
	case DriverDynamo:
		if c.Store.DynamoTable == "" {
			errs = append(errs, errors.New("store.dynamodb_table is required for the dynamodb driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Auth.Domain == "" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.domain or auth.jwt_secret is required"))
	}
	if c.OIDCEnabled() && len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, errors.New("auth.session_secret must be at least 32 characters when login is enabled"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// PublicBaseURL is the externally visible origin used for redirects.
func (c *Config) PublicBaseURL() string {
	if c.IsProduction() && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return strings.TrimSuffix(c.BaseURLLocal, "/")
}

// Issuer is the expected token issuer, or empty when no domain is configured.
func (c *Config) Issuer() string {
	if c.Auth.Domain == "" {
		return ""
	}
	return "https://" + strings.TrimSuffix(c.Auth.Domain, "/") + "/"
}

// OIDCEnabled reports whether the browser login flow can be offered.
func (c *Config) OIDCEnabled() bool {
	return c.Auth.Domain != "" && c.Auth.ClientID != ""
}

// Address is the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
