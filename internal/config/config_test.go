package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, 3, cfg.ModelGateway.MaxRetries)
	assert.Equal(t, 30, cfg.Interview.WrapUpThresholdS)
	assert.Equal(t, 8, cfg.Interview.MaxTopics)
}

func TestLoad_FileValuesOverrideDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metrics_port: 9191
model_gateway:
  max_retries: 7
interview:
  max_topics: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.MetricsPort)
	assert.Equal(t, 7, cfg.ModelGateway.MaxRetries)
	assert.Equal(t, 5, cfg.Interview.MaxTopics)
	assert.Equal(t, 3, cfg.Interview.MaxFollowUps, "unset fields keep their default")
}

func TestLoad_LegacyEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: "postgres://file-dsn"
`), 0o644))

	t.Setenv("DATABASE_DSN", "postgres://env-dsn")
	t.Setenv("QGEN_PARALLELISM", "9")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-dsn", cfg.Database.DSN)
	assert.Equal(t, 9, cfg.QGen.Parallelism)
}
