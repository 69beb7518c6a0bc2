package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMissingFileUsesDefaults(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, ":8080", cfg.System.BindAddress)
	assert.Equal(t, "http://localhost:8080", cfg.System.PublicBaseURL)
	assert.Equal(t, "info", cfg.System.LogLevel)
	assert.Equal(t, 10, cfg.System.DeliveryTimeout)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"version": 1,
		"system": {
			"bind_address": ":9999",
			"public_base_url": "https://bridge.example.com",
			"delivery_timeout": 3
		}
	}`)

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, ":9999", cfg.System.BindAddress)
	assert.Equal(t, "https://bridge.example.com", cfg.System.PublicBaseURL)
	assert.Equal(t, 3, cfg.System.DeliveryTimeout)
	// Unset fields fall back to defaults.
	assert.Equal(t, "info", cfg.System.LogLevel)
	assert.Equal(t, "sentrybridge.db", cfg.System.DatabasePath)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
version: 1
system:
  bind_address: ":7070"
  public_base_url: https://bridge.example.com
  log_level: debug
`)

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, ":7070", cfg.System.BindAddress)
	assert.Equal(t, "debug", cfg.System.LogLevel)
}

func TestEnvOverridesPublicURL(t *testing.T) {
	t.Setenv(PublicURLEnv, "https://override.example.com")

	path := writeFile(t, "config.json", `{
		"system": {"public_base_url": "https://file.example.com"}
	}`)

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", m.Get().System.PublicBaseURL)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"system": {"log_level": "verbose"}
	}`)

	_, err := NewManager(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadPublicURL(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"system": {"public_base_url": "not-a-url"}
	}`)

	_, err := NewManager(path)
	assert.Error(t, err)
}
