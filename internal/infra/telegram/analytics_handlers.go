package telegram

import (
	"context"
	"strings"

	"crm_onboarding_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgDefaultManagerSaved  = "Менеджер сохранен как менеджер по умолчанию"
	msgDefaultManagerFailed = "Не удалось сохранить менеджера по умолчанию"
	msgCallbackFailed       = "Произошла ошибка"
)

// RegisterAnalyticsHandlers wires the manager conversion inline query and the default
// manager button.
func RegisterAnalyticsHandlers(ctx context.Context, b *telebot.Bot, analytics *app.AnalyticsService, baseLogger *logrus.Entry) {
	handlerLogger := baseLogger.WithField("handler_group", "analytics")

	b.Handle(telebot.OnQuery, func(c telebot.Context) error {
		q := c.Query()
		logCtx := handlerLogger.WithFields(logrus.Fields{
			"handler":   "inline_query",
			"sender_id": c.Sender().ID,
			"query":     q.Text,
		})

		query := strings.TrimSpace(q.Text)
		if query == "" {
			name, err := analytics.DefaultManager(ctx, c.Sender().ID)
			if err != nil {
				logCtx.WithError(err).Warn("Failed to load default manager")
			}
			query = name
		}

		stats, err := analytics.ManagersStats(ctx, analytics.Today())
		if err != nil {
			logCtx.WithError(err).Error("Failed to compute manager stats")
			return c.Answer(&telebot.QueryResponse{Results: telebot.Results{}, CacheTime: 0})
		}

		results := managerResults(app.FilterManagers(stats, query))
		logCtx.WithField("results", len(results)).Info("Answering inline query")
		return c.Answer(&telebot.QueryResponse{
			Results:    results,
			CacheTime:  inlineCacheTime,
			IsPersonal: true,
		})
	})

	b.Handle(&btnSaveDefaultManager, func(c telebot.Context) error {
		managerID := c.Data()
		logCtx := handlerLogger.WithFields(logrus.Fields{
			"handler":    "save_default_manager",
			"sender_id":  c.Sender().ID,
			"manager_id": managerID,
		})

		saved, err := analytics.SaveDefaultManager(ctx, c.Sender().ID, managerID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to save default manager")
			return c.Respond(&telebot.CallbackResponse{Text: msgCallbackFailed})
		}
		if !saved {
			return c.Respond(&telebot.CallbackResponse{Text: msgDefaultManagerFailed})
		}
		return c.Respond(&telebot.CallbackResponse{Text: msgDefaultManagerSaved})
	})
}
