package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.API.BaseURL)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 0.6, cfg.Breaker.FailureRatio)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.internal/api")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("OFFLINE_ACCOUNTS", "true")

	cfg, err := LoadConfig(writeConfig(t, "api:\n  base_url: http://ignored/api\nstorage:\n  driver: sqlite\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal/api", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.True(t, cfg.Session.OfflineAccounts)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = LoadConfig(writeConfig(t, "storage: [oops"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = LoadConfig(writeConfig(t, "storage:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "tickets", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tickets sslmode=disable", d.DSN())
}
