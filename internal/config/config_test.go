package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadForTest(t *testing.T) *Config {
	t.Helper()

	// Point the config file lookup somewhere empty so only env and defaults apply
	t.Setenv("ASKDB_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	return cfg
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadForTest(t)

	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, "30s", cfg.Database.QueryTimeout)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 600, cfg.LLM.MaxTokens)
	assert.Equal(t, "sales_data", cfg.Query.DefaultTable)
	assert.Equal(t, 1, cfg.Query.MaxRepairs)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ASKDB_LLM_PROVIDER", "openai")
	t.Setenv("ASKDB_LLM_MODEL", "gpt-4")
	t.Setenv("ASKDB_MAX_REPAIRS", "3")
	t.Setenv("ASKDB_DEFAULT_TABLE", "orders")

	cfg := loadForTest(t)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Query.MaxRepairs)
	assert.Equal(t, "orders", cfg.Query.DefaultTable)
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{"llm": {"model": "claude-3-sonnet-20240229"}, "query": {"default_table": "events"}}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	t.Setenv("ASKDB_CONFIG", configPath)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "claude-3-sonnet-20240229", cfg.LLM.Model)
	assert.Equal(t, "events", cfg.Query.DefaultTable)
	// Unset fields still fall back to defaults
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "ASKDB_LOG_LEVEL", "loud"},
		{"bad log format", "ASKDB_LOG_FORMAT", "xml"},
		{"bad provider", "ASKDB_LLM_PROVIDER", "lamini"},
		{"bad timeout", "ASKDB_DB_QUERY_TIMEOUT", "eventually"},
		{"bad max connections", "ASKDB_DB_MAX_CONNECTIONS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ASKDB_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestTimeoutDurations(t *testing.T) {
	cfg := loadForTest(t)

	assert.Equal(t, 30*time.Second, cfg.QueryTimeoutDuration())
	assert.Equal(t, 60*time.Second, cfg.LLMTimeoutDuration())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), expandPath("~/data"))
	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, "/var/tmp/askdb", expandPath("/var/tmp/askdb"))
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := loadForTest(t)
	cfg.Database.Path = filepath.Join(dir, "db", "askdb.db")
	cfg.Paths.Output = filepath.Join(dir, "output")
	cfg.Logging.File = filepath.Join(dir, "logs", "askdb.log")

	require.NoError(t, cfg.EnsureDirectories())

	assert.DirExists(t, filepath.Join(dir, "db"))
	assert.DirExists(t, filepath.Join(dir, "output"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}
