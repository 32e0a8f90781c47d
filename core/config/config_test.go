package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	path := writeConfig(t, `
telegram:
  admin_id: 777
  run_mode: polling
rate_limit:
  exclude_updates: [" Callback "]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(777), cfg.Telegram.AdminID)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	base := func() Config {
		return Config{Telegram: TelegramConfig{Token: "t", AdminID: 1}}
	}
	cases := map[string]func(*Config){
		"missing token":   func(c *Config) { c.Telegram.Token = "" },
		"missing owner":   func(c *Config) { c.Telegram.AdminID = 0 },
		"bad run mode":    func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
		"webhook no url":  func(c *Config) { c.Telegram.RunMode = RunModeWebhook },
		"negative poll":   func(c *Config) { c.Telegram.LongPollTimeoutSeconds = -1 },
		"bad exclusion":   func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"photo"} },
		"negative rotate": func(c *Config) { c.Logging.MaxBackups = -2 },
		"negative rate":   func(c *Config) { c.RateLimit.IntervalMS = -1 },
		"bad secret": func(c *Config) {
			c.Telegram.RunMode = RunModeWebhook
			c.Webhook = WebhookConfig{URL: "https://x", Listen: "0.0.0.0", Port: 8443, SecretToken: "has space"}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			assert.ErrorIs(t, Normalize(&cfg), ErrInvalid)
		})
	}
}

func TestNormalizeReportsAllProblems(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{RunMode: RunModeWebhook}}
	err := Normalize(&cfg)
	require.Error(t, err)
	for _, want := range []string{"telegram.token", "telegram.admin_id", "webhook.url", "webhook.listen", "webhook.port"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
