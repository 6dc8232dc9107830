package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 500
  public_url: "https://party.example.com"

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

game:
  vote_duration: 45
  room_timeout: 15

ai:
  api_key: "key"
  model: "gemini-2.0-flash"
  language: "English"
  timeout: 5

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  message_limit:
    max_per_second: 5
    burst: 8

log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Server.MaxConnections)
	assert.Equal(t, "https://party.example.com", cfg.Server.PublicURL)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())

	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.True(t, cfg.Redis.Enabled())

	assert.Equal(t, 45*time.Second, cfg.Game.VoteDurationTime())
	assert.Equal(t, 15*time.Minute, cfg.Game.RoomTimeoutDuration())

	assert.Equal(t, "key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, "English", cfg.AI.Language)
	assert.Equal(t, 5*time.Second, cfg.AI.TimeoutDuration())

	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 5, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, 8, cfg.Security.MessageLimit.Burst)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled(), "no redis addr disables the leaderboard")
	assert.Equal(t, defaultVoteDuration, cfg.Game.VoteDuration)
	assert.Equal(t, defaultRoomTimeout, cfg.Game.RoomTimeout)
	assert.Equal(t, defaultAIModel, cfg.AI.Model)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, defaultLogFormat, cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Game.VoteDurationTime())
	assert.Equal(t, 10*time.Second, cfg.AI.TimeoutDuration())
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Game.VoteDuration = -1
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "vote_duration")
	assert.Contains(t, err.Error(), "xml")
}
