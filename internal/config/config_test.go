package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, 2000, cfg.MaxQuestionLength)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_QUESTION_LENGTH", "140")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 140, cfg.MaxQuestionLength)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAX_QUESTION_LENGTH", "lots")
	t.Setenv("HEARTBEAT_INTERVAL", "often")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.MaxQuestionLength)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
}

func TestLoad_YAMLFileBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asksystem.yaml")
	content := "port: \"9000\"\nmax_question_length: 500\nheartbeat_interval: 15s\nsentry_environment: staging\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("MAX_QUESTION_LENGTH", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 250, cfg.MaxQuestionLength, "env wins over file")
	assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, "staging", cfg.SentryEnvironment)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non-positive length", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("MAX_QUESTION_LENGTH", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}
