package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_SERVER", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_TLS", "KAFKA_BROKERS", "KAFKA_TOPIC", "HTTP_PORT", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Server)
	assert.Equal(t, 27017, cfg.DB.Port)
	assert.False(t, cfg.DB.TLS)
	assert.Equal(t, 10*time.Second, cfg.DB.Timeout)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "620167361_pub", cfg.Kafka.Topic)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
db:
  server: mongo.lab
  port: 27018
  username: student
  password: "p@ss word"
  tls: true
  timeout: 3s
kafka:
  brokers: localhost:9092
worker:
  count: 2
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	mongo := cfg.Mongo()
	assert.Equal(t, "mongo.lab", mongo.Server)
	assert.Equal(t, 27018, mongo.Port)
	assert.Equal(t, "student", mongo.Username)
	assert.Equal(t, "p@ss word", mongo.Password)
	assert.True(t, mongo.TLS)
	assert.Equal(t, 3*time.Second, cfg.DB.Timeout)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "localhost:9092", cfg.KafkaQueue().Brokers)
	assert.Equal(t, "elet2415-updates", cfg.KafkaQueue().GroupID)
	assert.Equal(t, 2, cfg.Worker.Count)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  server: file-host\n  port: 1000\n"), 0o600))

	t.Setenv("DB_SERVER", "env-host")
	t.Setenv("DB_PORT", "27019")
	t.Setenv("DB_USERNAME", "admin")
	t.Setenv("DB_TLS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.DB.Server)
	assert.Equal(t, 27019, cfg.DB.Port)
	assert.Equal(t, "admin", cfg.DB.Username)
	assert.True(t, cfg.DB.TLS)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "bad port env", env: map[string]string{"DB_PORT": "abc"}},
		{name: "bad tls env", env: map[string]string{"DB_TLS": "maybe"}},
		{name: "port out of range", yaml: "db:\n  port: 70000\n"},
		{name: "bad log format", yaml: "log:\n  format: xml\n"},
		{name: "malformed yaml", yaml: "db: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
