package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/go-pixiv/pixiv/pkg/config"
	"github.com/go-pixiv/pixiv/pkg/client"
	"github.com/go-pixiv/pixiv/pkg/pixiv"
)

// unsetEnv removes PIXIV_* variables and the keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, EnvPrefix+"_") {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t)

	cfg, err := Load(WithEnvFiles())
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ClientID:     pixiv.DefaultClientID,
		ClientSecret: pixiv.DefaultClientSecret,
		Log:          LogConfig{Level: "info", Format: LogFormatAuto},
		HTTP:         HTTPConfig{Timeout: client.RequestTimeout},
	}, cfg)
	assert.False(t, cfg.HasCredentials())
}

func TestLoad_Env(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PIXIV_USERNAME", "user")
	t.Setenv("PIXIV_PASSWORD", "pass")
	t.Setenv("PIXIV_LOG_LEVEL", "debug")
	t.Setenv("PIXIV_HTTP_TIMEOUT", "10s")
	t.Setenv("PIXIV_HTTP_RETRY_COUNT", "3")
	t.Setenv("PIXIV_HTTP_RATE_LIMIT", "2.5")
	t.Setenv("PIXIV_HTTP_VERBOSE", "true")

	cfg, err := Load(WithEnvFiles())
	require.NoError(t, err)
	assert.Equal(t, "user", cfg.Username)
	assert.Equal(t, "pass", cfg.Password)
	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, HTTPConfig{Timeout: 10 * time.Second, RetryCount: 3, RateLimit: 2.5, Verbose: true}, cfg.HTTP)
}

func TestLoad_EnvFile(t *testing.T) {
	unsetEnv(t, "PIXIV_ACCESS_TOKEN", "PIXIV_REFRESH_TOKEN", "PIXIV_CLIENT_ID")
	// Environment takes precedence over the .env file
	t.Setenv("PIXIV_CLIENT_ID", "from-env")

	envFile := writeFile(t, ".env", "PIXIV_ACCESS_TOKEN=my-access\nPIXIV_REFRESH_TOKEN=my-refresh\nPIXIV_CLIENT_ID=from-file\n")
	cfg, err := Load(WithEnvFiles(envFile, filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, err)
	assert.Equal(t, "my-access", cfg.AccessToken)
	assert.Equal(t, "my-refresh", cfg.RefreshToken)
	assert.Equal(t, "from-env", cfg.ClientID)
	assert.Equal(t, pixiv.DefaultClientSecret, cfg.ClientSecret)
}

func TestLoad_ConfigFile(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PIXIV_HTTP_RETRY_COUNT", "7")

	configFile := writeFile(t, "pixiv.yaml", `
username: user
password: pass
log:
  level: warn
  format: json
http:
  timeout: 1m
  retry_count: 3
  http2: true
`)

	cfg, err := Load(WithEnvFiles(), WithConfigFile(configFile))
	require.NoError(t, err)
	assert.Equal(t, "user", cfg.Username)
	assert.Equal(t, LogConfig{Level: "warn", Format: LogFormatJSON}, cfg.Log)
	assert.Equal(t, time.Minute, cfg.HTTP.Timeout)
	assert.Equal(t, 7, cfg.HTTP.RetryCount)
	assert.True(t, cfg.HTTP.HTTP2)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	unsetEnv(t)

	_, err := Load(WithEnvFiles(), WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `cannot read config file "`)
}

func TestLoad_Invalid(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PIXIV_USERNAME", "user")
	t.Setenv("PIXIV_LOG_LEVEL", "loud")
	t.Setenv("PIXIV_LOG_FORMAT", "xml")
	t.Setenv("PIXIV_HTTP_RETRY_COUNT", "-1")

	_, err := Load(WithEnvFiles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config:")
	assert.Contains(t, err.Error(), "password must be set together with username")
	assert.Contains(t, err.Error(), `log.level "loud" is not valid`)
	assert.Contains(t, err.Error(), `log.format "xml" is not valid`)
	assert.Contains(t, err.Error(), "http.retry_count cannot be negative")
}

func TestConfig_APIOptions(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		AccessToken:  "my-access",
		RefreshToken: "my-refresh",
		ClientID:     pixiv.DefaultClientID,
		ClientSecret: pixiv.DefaultClientSecret,
		HTTP:         HTTPConfig{Timeout: time.Second, RetryCount: 2, RateLimit: 10, Verbose: true},
	}

	api := pixiv.New(cfg.APIOptions(zerolog.Nop())...)
	assert.Equal(t, "my-access", api.AccessToken())
	assert.Equal(t, "my-refresh", api.RefreshToken())
	assert.IsType(t, client.Client{}, api.Client())
}

func TestConfig_APIOptions_NoToken(t *testing.T) {
	t.Parallel()
	cfg := &Config{ClientID: "id", ClientSecret: "secret"}

	api := pixiv.New(cfg.APIOptions(zerolog.Nop())...)
	_, err := api.Token()
	assert.Error(t, err)
}

func TestConfig_NewAPI_AccessToken(t *testing.T) {
	t.Parallel()
	cfg := &Config{AccessToken: "my-access", Username: "user", Password: "pass"}

	// No request is sent, the access token is used as it is
	api, err := cfg.NewAPI(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "my-access", api.AccessToken())
}

func TestConfig_NewAPI_NoCredentials(t *testing.T) {
	t.Parallel()
	api, err := (&Config{}).NewAPI(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, api.AccessToken())
}
