package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `database:
  host: db.internal
  port: 3306
  username: signet
  password: secret
  database: signet
logger:
  level: debug
  format: json
  output_path: stdout
apple:
  team_id: TEAM123456
  app_id: com.example.app
  service_id: com.example.web
  signing_key_id: KEY1234567
  signing_key: dummy-pem
twitter:
  consumer_key: ck
  consumer_secret: cs
token_cipher:
  key: 0123456789abcdef
worker:
  queue_size: 64
`

func writeTestConfig(t *testing.T, yaml string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)
}

func TestLoad(t *testing.T) {
	viper.Reset()
	writeTestConfig(t, testConfigYAML)

	cfg, err := Load("production")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "signet:secret@tcp(db.internal:3306)/signet?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.GetDSN())
	assert.Equal(t, "TEAM123456", cfg.Apple.TeamID)
	assert.Equal(t, "ck", cfg.Twitter.ConsumerKey)
	assert.Equal(t, 64, cfg.Worker.QueueSize)

	// The logger section comes from the file alone; the environment argument
	// must not inject keys the structs never read.
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.False(t, viper.IsSet("logger.mode"))

	assert.Same(t, cfg, Get())
}

func TestLoad_DefaultsApply(t *testing.T) {
	viper.Reset()
	writeTestConfig(t, `database:
  username: signet
  database: signet
apple:
  team_id: TEAM123456
  app_id: com.example.app
  service_id: com.example.web
  signing_key_id: KEY1234567
  signing_key: dummy-pem
twitter:
  consumer_key: ck
  consumer_secret: cs
token_cipher:
  key: 0123456789abcdef
`)

	cfg, err := Load("development")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 256, cfg.Worker.QueueSize)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	viper.Reset()
	writeTestConfig(t, `database:
  username: signet
  database: signet
twitter:
  consumer_key: ck
  consumer_secret: cs
token_cipher:
  key: 0123456789abcdef
`)

	_, err := Load("development")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
