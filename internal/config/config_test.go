package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8080
  env: production
database:
  driver: mysql
  url: "user:pass@tcp(localhost:3306)/market"
gateway:
  base_url: https://api.pg.example
  secret_key: sk_test
  timeout_seconds: 5
events:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "https://api.pg.example", cfg.Gateway.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, 2, cfg.Events.Workers)

	// defaults
	assert.Equal(t, 256, cfg.Events.QueueSize)
	assert.Equal(t, 7, cfg.Settlement.PayoutDelayDays)
	assert.Equal(t, 30*time.Minute, cfg.PendingTimeout())
	assert.Equal(t, 3, cfg.Subscription.MaxFailures)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GATEWAY_SECRET_KEY", "sk_env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk_env", cfg.Gateway.SecretKey)
	assert.Equal(t, "development", cfg.Server.Env)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
