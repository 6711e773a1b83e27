package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umrah-desk/api"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DESK_CONFIG_DIR", dir)
	for _, key := range []string{
		"DESK_API_URL", "DESK_HTTP_TIMEOUT", "DESK_LISTEN_ADDR", "DESK_ALLOWED_ORIGINS",
		"DESK_DEFAULT_TAB", "DESK_PAGE_SIZE", "DESK_AVAILABILITY_WORKERS", "DESK_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, api.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Desk.PageSize)
	assert.Equal(t, 4, cfg.Desk.AvailabilityWorkers)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"api_url":"https://file.example/api","default_tab":"confirmed","page_size":25}`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://file.example/api", cfg.API.BaseURL)
	assert.Equal(t, "confirmed", cfg.Desk.DefaultTab)
	assert.Equal(t, 25, cfg.Desk.PageSize)

	t.Setenv("DESK_API_URL", "https://env.example/api")
	t.Setenv("DESK_PAGE_SIZE", "50")
	t.Setenv("DESK_HTTP_TIMEOUT", "30")
	t.Setenv("DESK_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DESK_LOG_LEVEL", "debug")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/api", cfg.API.BaseURL)
	assert.Equal(t, 50, cfg.Desk.PageSize)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel())
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DESK_AVAILABILITY_WORKERS", "many")
	t.Setenv("DESK_HTTP_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Desk.AvailabilityWorkers)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:  APIConfig{BaseURL: "https://desk.example/api", Timeout: time.Second},
			Desk: DeskConfig{PageSize: 10, AvailabilityWorkers: 2},
			Log:  LogConfig{Level: "info"},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "relative url", mutate: func(c *Config) { c.API.BaseURL = "/api" }},
		{name: "ftp url", mutate: func(c *Config) { c.API.BaseURL = "ftp://desk.example" }},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }},
		{name: "zero page size", mutate: func(c *Config) { c.Desk.PageSize = 0 }},
		{name: "no workers", mutate: func(c *Config) { c.Desk.AvailabilityWorkers = -1 }},
		{name: "unknown tab", mutate: func(c *Config) { c.Desk.DefaultTab = "archived" }},
		{name: "unknown level", mutate: func(c *Config) { c.Log.Level = "loud" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFileRejectsMalformedJSON(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"page_size":`), 0o600))

	_, err := Load()
	assert.Error(t, err)
}
