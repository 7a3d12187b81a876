package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("API_BASE_URL", "https://crm.example.com/")
	t.Setenv("API_KEY", "secret")
	t.Setenv("API_ENDPOINT_USERS", "/rest/users")
	t.Setenv("API_ENDPOINT_REGISTER", "/rest/register")
	t.Setenv("DATABASE_URL", "postgres://bot@localhost/bot?sslmode=disable")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModePolling, cfg.BotMode)
	assert.Equal(t, "https://crm.example.com", cfg.APIBaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, defaultManagersEndpoint, cfg.EndpointManagers)
	assert.Equal(t, defaultBonusListEndpoint, cfg.EndpointBonusList)
	assert.Equal(t, 10*time.Second, cfg.CRMTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 15*time.Minute, cfg.DialogTTL)
	assert.Equal(t, 3, cfg.RegistrationMaxAttempts)
	assert.Equal(t, 5, cfg.PollMaxAttempts)
	assert.Equal(t, time.Second, cfg.PollDelay)
	assert.Equal(t, "@every 1m", cfg.CronSpecDialogSweep)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.AllowedOperatorIDs)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_MODE", "WEBHOOK")
	t.Setenv("WEBHOOK_BASE_URL", "https://bot.example.com/")
	t.Setenv("POLL_DELAY", "250ms")
	t.Setenv("REGISTRATION_MAX_ATTEMPTS", "5")
	t.Setenv("ALLOWED_OPERATOR_IDS", "11, 22,,33")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeWebhook, cfg.BotMode)
	assert.Equal(t, "https://bot.example.com/123:abc", cfg.WebhookURL())
	assert.Equal(t, 250*time.Millisecond, cfg.PollDelay)
	assert.Equal(t, 5, cfg.RegistrationMaxAttempts)
	assert.Equal(t, []int64{11, 22, 33}, cfg.AllowedOperatorIDs)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"BOT_TOKEN", "API_BASE_URL", "API_KEY", "API_ENDPOINT_USERS", "API_ENDPOINT_REGISTER", "DATABASE_URL"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, key+" is not set", err.Error())
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"BOT_MODE":                  "carrier-pigeon",
		"POLL_DELAY":                "soon",
		"DIALOG_TTL":                "-1m",
		"POLL_MAX_ATTEMPTS":         "0",
		"REGISTRATION_MAX_ATTEMPTS": "three",
		"ALLOWED_OPERATOR_IDS":      "1,x",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_WebhookNeedsBaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_MODE", "webhook")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "WEBHOOK_BASE_URL is not set", err.Error())
}
