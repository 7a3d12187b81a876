package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Bot update delivery modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

const (
	defaultManagersEndpoint  = "/rest/mobile/v44-admin/managers"
	defaultBonusListEndpoint = "/rest/base/v33/validator/bonus-list"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken  string
	BotMode        string
	WebhookBaseURL string
	HTTPAddr       string

	APIBaseURL        string
	APIKey            string
	EndpointUsers     string
	EndpointRegister  string
	EndpointManagers  string
	EndpointBonusList string
	CRMTimeout        time.Duration

	DatabaseURL string
	RedisURL    string // optional, stats are not cached when empty

	LogLevel    string
	Environment string

	DialogTTL               time.Duration
	RegistrationMaxAttempts int
	PollMaxAttempts         int
	PollDelay               time.Duration

	CronSpecDialogSweep string
	CronSpecStatsWarmup string

	AllowedOperatorIDs []int64 // empty means every Telegram user may operate the bot
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("BOT_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	cfg.BotMode = strings.ToLower(os.Getenv("BOT_MODE"))
	if cfg.BotMode == "" {
		cfg.BotMode = ModePolling
	}
	if cfg.BotMode != ModePolling && cfg.BotMode != ModeWebhook {
		return nil, fmt.Errorf("invalid BOT_MODE %q: expected %s or %s", cfg.BotMode, ModePolling, ModeWebhook)
	}

	cfg.WebhookBaseURL = strings.TrimRight(os.Getenv("WEBHOOK_BASE_URL"), "/")
	if cfg.BotMode == ModeWebhook && cfg.WebhookBaseURL == "" {
		return nil, fmt.Errorf("WEBHOOK_BASE_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.APIBaseURL = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is not set")
	}

	cfg.APIKey = os.Getenv("API_KEY")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is not set")
	}

	cfg.EndpointUsers = os.Getenv("API_ENDPOINT_USERS")
	if cfg.EndpointUsers == "" {
		return nil, fmt.Errorf("API_ENDPOINT_USERS is not set")
	}

	cfg.EndpointRegister = os.Getenv("API_ENDPOINT_REGISTER")
	if cfg.EndpointRegister == "" {
		return nil, fmt.Errorf("API_ENDPOINT_REGISTER is not set")
	}

	cfg.EndpointManagers = os.Getenv("API_ENDPOINT_MANAGERS")
	if cfg.EndpointManagers == "" {
		cfg.EndpointManagers = defaultManagersEndpoint
	}

	cfg.EndpointBonusList = os.Getenv("API_ENDPOINT_BONUS_LIST")
	if cfg.EndpointBonusList == "" {
		cfg.EndpointBonusList = defaultBonusListEndpoint
	}

	if cfg.CRMTimeout, err = durationEnv("CRM_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.DialogTTL, err = durationEnv("DIALOG_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RegistrationMaxAttempts, err = intEnv("REGISTRATION_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.PollMaxAttempts, err = intEnv("POLL_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.PollDelay, err = durationEnv("POLL_DELAY", time.Second); err != nil {
		return nil, err
	}

	cfg.CronSpecDialogSweep = os.Getenv("CRON_SPEC_DIALOG_SWEEP")
	if cfg.CronSpecDialogSweep == "" {
		cfg.CronSpecDialogSweep = "@every 1m"
	}

	cfg.CronSpecStatsWarmup = os.Getenv("CRON_SPEC_STATS_WARMUP")
	if cfg.CronSpecStatsWarmup == "" {
		cfg.CronSpecStatsWarmup = "*/5 8-22 * * *" // every 5 minutes during working hours
	}

	if cfg.AllowedOperatorIDs, err = idListEnv("ALLOWED_OPERATOR_IDS"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WebhookURL is the public address Telegram posts updates to.
func (c *AppConfig) WebhookURL() string {
	return c.WebhookBaseURL + "/" + c.TelegramToken
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1", key)
	}
	return n, nil
}

func idListEnv(key string) ([]int64, error) {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
