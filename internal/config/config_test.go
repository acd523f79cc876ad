package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// без файла и env — чистые значения по умолчанию
	t.Setenv("CONFIG_PATH", "/nonexistent/api.yaml")
	t.Setenv("APP_ENV", "production") // отключает поиск .env по дереву

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "user-1", cfg.SessionUserID)
	assert.Equal(t, 10, cfg.Advisor.HistoryWindow)
	assert.Equal(t, 1000, cfg.Advisor.ReplyDelayMinMs)
	assert.Equal(t, 2000, cfg.Advisor.ReplyDelayMaxMs)
	assert.Equal(t, 20*time.Second, cfg.Advisor.RequestTimeout)
}

func TestLoad_EnvOverridesAndDelayNormalization(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/api.yaml")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("SESSION_USER_ID", "user-3")
	t.Setenv("REPLY_DELAY_MIN_MS", "500")
	t.Setenv("REPLY_DELAY_MAX_MS", "100") // max <= min — нормализуется

	cfg := Load()
	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "user-3", cfg.SessionUserID)
	assert.Equal(t, 500, cfg.Advisor.ReplyDelayMinMs)
	assert.Equal(t, 501, cfg.Advisor.ReplyDelayMaxMs)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/api.yaml"
	data := []byte("server_addr: \":7070\"\nsession_user_id: user-2\nhistory_window: 5\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, ":7070", cfg.ServerAddr)
	assert.Equal(t, "user-2", cfg.SessionUserID)
	assert.Equal(t, 5, cfg.Advisor.HistoryWindow)
}
