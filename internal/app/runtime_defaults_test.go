package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsGeneratesMissingSecrets(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8000}}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Auth.JWT.Secret)
	require.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	require.True(t, generated["auth.jwt.secret"])
	require.True(t, generated["server.base_url"])
}

func TestApplyRuntimeDefaultsPreservesExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = strings.Repeat("a", 10)
	cfg.Server.BaseURL = "https://portal.example.com/"

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	require.Empty(t, generated)
	require.Equal(t, strings.Repeat("a", 10), cfg.Auth.JWT.Secret)
	require.Equal(t, "https://portal.example.com", cfg.Server.BaseURL)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.ErrorContains(t, err, "config is nil")
}
