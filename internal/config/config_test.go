package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "badger", cfg.StorageDriver)
	assert.Equal(t, "./badger_data", cfg.BadgerDBPath)
	assert.Equal(t, time.Hour, cfg.ArticleCacheTTL)
	assert.Equal(t, 256, cfg.ArticleCacheSize)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, time.Hour, cfg.JWTTTL())
	assert.Error(t, cfg.ValidateServer(), "JWT_SECRET is required for serve")
	assert.Error(t, cfg.ValidateBot())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "JWT_SECRET: from-file\nCORS_ORIGINS: \"https://a.example, https://b.example\"\nARTICLE_CACHE_TTL: 30m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("JWT_TTL_HOURS", "4")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.ArticleCacheTTL)
	assert.Equal(t, 4*time.Hour, cfg.JWTTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowlist())
	assert.NoError(t, cfg.ValidateServer())
	assert.NoError(t, cfg.ValidateBot())
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestValidateServer_PostgresNeedsDSN(t *testing.T) {
	cfg := Config{JWTSecret: "s", StorageDriver: "postgres"}
	assert.Error(t, cfg.ValidateServer())
	cfg.PostgresDSN = "postgres://localhost/linkwise"
	assert.NoError(t, cfg.ValidateServer())
}
