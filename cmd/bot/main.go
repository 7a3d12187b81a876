package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"crm_onboarding_bot/internal/app"
	"crm_onboarding_bot/internal/domain/manager"
	"crm_onboarding_bot/internal/infra/cache"
	"crm_onboarding_bot/internal/infra/config"
	"crm_onboarding_bot/internal/infra/crm"
	idb "crm_onboarding_bot/internal/infra/database"
	"crm_onboarding_bot/internal/infra/logger"
	"crm_onboarding_bot/internal/infra/metrics"
	"crm_onboarding_bot/internal/infra/scheduler"
	"crm_onboarding_bot/internal/infra/server"
	"crm_onboarding_bot/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Info("CRM onboarding bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.Fatalf("Could not apply database schema: %v", err)
	}
	operatorRepo := idb.NewPostgresOperatorRepository(db)
	mainLogger.Info("Database connection established")

	// Redis is optional, stats are computed on every inline query without it.
	var statsCache manager.StatsCache
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		mainLogger.WithError(err).Warn("Redis unavailable, manager stats will not be cached")
	} else if redisClient != nil {
		defer redisClient.Close()
		statsCache = cache.NewRedisStatsCache(redisClient, "")
		mainLogger.Info("Redis stats cache enabled")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// CRM and services
	crmClient := crm.NewClient(crm.Config{
		BaseURL:           cfg.APIBaseURL,
		APIKey:            cfg.APIKey,
		EndpointUsers:     cfg.EndpointUsers,
		EndpointRegister:  cfg.EndpointRegister,
		EndpointManagers:  cfg.EndpointManagers,
		EndpointBonusList: cfg.EndpointBonusList,
		Timeout:           cfg.CRMTimeout,
	}, logger.Component("crm"))

	onboardingService := app.NewOnboardingService(crmClient, app.OnboardingConfig{
		MaxSubmitAttempts: cfg.RegistrationMaxAttempts,
		PollAttempts:      cfg.PollMaxAttempts,
		PollDelay:         cfg.PollDelay,
	}, appMetrics, logger.Component("app"))
	analyticsService := app.NewAnalyticsService(crmClient, statsCache, operatorRepo, logger.Component("app"))

	// Telegram bot
	var poller telebot.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
	var webhook *telebot.Webhook
	if cfg.BotMode == config.ModeWebhook {
		webhook = &telebot.Webhook{
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL()},
		}
		poller = webhook
	}

	botLogger := logger.Component("telegram")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: poller,
		OnError: func(err error, c telebot.Context) {
			logCtx := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				logCtx = logCtx.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"text":      c.Text(),
				})
			}
			logCtx.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("Could not create Telegram bot: %v", err)
	}

	if len(cfg.AllowedOperatorIDs) > 0 {
		bot.Use(middleware.Whitelist(cfg.AllowedOperatorIDs...))
		mainLogger.WithField("operators", len(cfg.AllowedOperatorIDs)).Info("Operator allowlist enabled")
	}
	if err := bot.SetCommands(telegram.Commands); err != nil {
		mainLogger.WithError(err).Warn("Failed to publish bot commands")
	}

	telegramClient := telegram.NewTelebotAdapter(bot)
	telegram.RegisterBotCommands(ctx, bot, telegramClient, onboardingService, botLogger)
	telegram.RegisterOnboardingHandlers(ctx, bot, telegramClient, onboardingService, botLogger)
	telegram.RegisterAnalyticsHandlers(ctx, bot, analyticsService, botLogger)
	mainLogger.Info("Telegram handlers registered")

	// Scheduler
	maintenance := scheduler.NewMaintenanceScheduler(
		onboardingService,
		analyticsService,
		cfg.DialogTTL,
		logger.Component("scheduler"),
		cfg.CronSpecDialogSweep,
		cfg.CronSpecStatsWarmup,
	)
	if err := maintenance.Start(); err != nil {
		mainLogger.Fatalf("Could not start scheduler: %v", err)
	}

	// HTTP server
	serverOpts := server.Options{
		Addr:     cfg.HTTPAddr,
		Gatherer: registry,
		Checks:   healthChecks(db, redisClient),
	}
	if webhook != nil {
		serverOpts.WebhookPath = "/" + cfg.TelegramToken
		serverOpts.Webhook = webhook
	}
	httpServer := server.New(serverOpts, logger.Component("http"))

	go bot.Start()
	mainLogger.WithField("mode", cfg.BotMode).Info("Bot started")

	if err := httpServer.Run(ctx); err != nil {
		mainLogger.WithError(err).Error("HTTP server stopped")
		stop()
	}

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")
	bot.Stop()
	maintenance.Stop()
	mainLogger.Info("Application shut down gracefully")
}

func healthChecks(db *sql.DB, redisClient *redis.Client) map[string]server.CheckFunc {
	checks := map[string]server.CheckFunc{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
