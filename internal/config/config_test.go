package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "dev-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.JWKSCacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL())
	assert.Empty(t, cfg.Issuer())
	assert.False(t, cfg.OIDCEnabled())
	assert.Equal(t, ":8080", cfg.Address())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DOMAIN", "rbs.us.auth0.com")
	t.Setenv("CLIENT_ID", "client")
	t.Setenv("CLIENT_SECRET", "secret")
	t.Setenv("LONG_RANDOM_STRING", "0123456789abcdef0123456789abcdef")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("BASE_URL", "https://rbs.example.com/")
	t.Setenv("BASE_URL_LOCAL", "http://localhost:9090")
	t.Setenv("STORE_DRIVER", "badger")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://rbs.example.com")
	t.Setenv("HTTP_READ_TIMEOUT", "2s")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverBadger, cfg.Store.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://rbs.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://rbs.example.com", cfg.PublicBaseURL())
	assert.Equal(t, "https://rbs.us.auth0.com/", cfg.Issuer())
	assert.True(t, cfg.OIDCEnabled())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "rbs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: postgres
  postgres_dsn: postgres://rbs@localhost/rbs
auth:
  jwt_secret: dev-secret
logging:
  level: debug
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://rbs@localhost/rbs", cfg.Store.PostgresDSN)
	assert.Equal(t, "warn", cfg.Logging.Level, "environment wins over file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with secret", mutate: func(c *Config) {}},
		{
			name:    "no verifier",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "" },
			wantErr: "auth.domain or auth.jwt_secret",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "sqlite" },
			wantErr: "unknown store.driver",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Store.Driver = DriverPostgres },
			wantErr: "postgres_dsn",
		},
		{
			name: "short session secret",
			mutate: func(c *Config) {
				c.Auth.Domain = "rbs.us.auth0.com"
				c.Auth.ClientID = "client"
				c.Auth.SessionSecret = "short"
			},
			wantErr: "session_secret",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Auth.JWTSecret = "dev-secret"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPublicBaseURLOutsideProduction(t *testing.T) {
	cfg := defaultConfig()
	cfg.BaseURL = "https://rbs.example.com"
	cfg.BaseURLLocal = "http://localhost:8080/"
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL())
}
