package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	require.NoError(t, Load(""))

	assert.Equal(t, "disk", viper.GetString("storage.backend"))
	assert.Equal(t, "sqlite", viper.GetString("meta.driver"))
	assert.Equal(t, "anonymous", viper.GetString("author"))
	// Redis 默认关闭
	assert.Empty(t, viper.GetString("cache.redis_url"))
}

func TestLoad_ExplicitFile(t *testing.T) {
	viper.Reset()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: memory\nauthor: alice\n"), 0644))

	require.NoError(t, Load(cfgPath))
	assert.Equal(t, "memory", viper.GetString("storage.backend"))
	assert.Equal(t, "alice", viper.GetString("author"))
}

func TestLoad_BadFileIsError(t *testing.T) {
	viper.Reset()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{{not yaml"), 0644))

	assert.Error(t, Load(cfgPath))
}
