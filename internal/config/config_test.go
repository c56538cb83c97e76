package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: 127.0.0.1
  port: 9001
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
auth:
  api_keys:
    - key-one
    - key-two
ingest:
  entity_cache_size: 1024
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9001, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
				assert.Equal(t, 1024, cfg.Ingest.EntityCacheSize)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8001, cfg.Server.Port)
				assert.Equal(t, 10, cfg.Server.ReadTimeout)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 65536, cfg.Ingest.EntityCacheSize)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
database:
  port: not-a-number
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadAPIConfig(configFile, t.TempDir())
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadAPIConfigFromEnv(t *testing.T) {
	t.Setenv("PASSAGE_DATABASE_HOST", "db.internal")
	t.Setenv("PASSAGE_DATABASE_DBNAME", "passages")
	t.Setenv("PASSAGE_SERVER_PORT", "7070")

	cfg, err := LoadAPIConfig("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "passages", cfg.Database.DBName)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadAggregatorConfig(t *testing.T) {
	configFile := writeConfigFile(t, `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`)

	cfg, err := LoadAggregatorConfig(configFile, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadAggregatorConfigRequiresDatabase(t *testing.T) {
	configFile := writeConfigFile(t, `
database:
  user: testuser
`)

	_, err := LoadAggregatorConfig(configFile, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host is required")
}

func TestLoadPrivacySweeperConfig(t *testing.T) {
	configFile := writeConfigFile(t, `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`)

	cfg, err := LoadPrivacySweeperConfig(configFile, t.TempDir())
	require.NoError(t, err)

	// defaults
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.Pause)
}

func TestLoadPrivacySweeperConfigOverrides(t *testing.T) {
	configFile := writeConfigFile(t, `
batch_size: 250
pause: "5s"
database:
  host: localhost
  dbname: testdb
`)

	cfg, err := LoadPrivacySweeperConfig(configFile, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Pause)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "passage",
		Password: "secret",
		DBName:   "passages",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=passage password=secret dbname=passages sslmode=disable",
		cfg.DSN())
}
