package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contentpay_backend/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  env: test
jwt:
  secret: cli-secret
  ttl_hours: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", "")
	path := writeConfig(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "token", "admin-1"})
	require.NoError(t, cmd.Execute())

	claims, err := auth.NewManager("cli-secret", time.Hour).ParseToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestTokenCommand_RejectsUnknownRole(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", "")
	path := writeConfig(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "token", "x", "--role", "root"})
	assert.Error(t, cmd.Execute())
}
