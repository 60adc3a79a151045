package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("SERVER_ADDRESS", "")

	v := viper.New()
	v.Set("server_address", "farm.example.com:443")
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.DataPath)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "http://farm.example.com:443", cfg.BaseURL())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "sync.example.com")
	t.Setenv("ENABLE_TLS", "true")
	t.Setenv("DATA_PATH", "/tmp/farmsync.db")
	t.Setenv("TIMEOUT", "5s")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.BaseURL())
	assert.Equal(t, "/tmp/farmsync.db", cfg.DataPath)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TIMEOUT", "-1s")

	_, err := Load(viper.New())
	assert.Error(t, err)
}
