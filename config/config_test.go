package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfgPath := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, WriteConfig(cfgPath, cfg))

	res, err := ReadConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, cfg, res)
	require.Equal(t, 3*time.Second, res.DetectConfig().Timeout)
	require.Equal(t, 30, res.RequestConfig().RequestQueueSize)
}

func TestPartialConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[API]
  ListenAddress = "/ip4/0.0.0.0/tcp/5000"

[Storage]
  Backend = "memory"
`), 0644))

	cfg, err := ReadConfig(cfgPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "/ip4/0.0.0.0/tcp/5000", cfg.API.ListenAddress)
	require.Equal(t, StorageMemory, cfg.Storage.Backend)
	require.Equal(t, DefaultConfig().Detect, cfg.Detect)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "redis"
	require.EqualError(t, cfg.Validate(), `unknown storage backend "redis"`)

	cfg = DefaultConfig()
	cfg.Detect.Retries = -1
	require.Error(t, cfg.Validate())
}

func TestResolvePath(t *testing.T) {
	require.Equal(t, filepath.Join("/repo", "datastore"), ResolvePath("/repo", "datastore"))
	require.Equal(t, "/data/db", ResolvePath("/repo", "/data/db"))
	require.Empty(t, ResolvePath("/repo", ""))
}
