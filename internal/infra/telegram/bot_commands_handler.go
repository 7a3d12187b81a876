package telegram

import (
	"context"

	"crm_onboarding_bot/internal/app"
	domainTelegram "crm_onboarding_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const helpText = "Доступные команды:\n/start - Начать поиск или регистрацию по номеру телефона\n/help - Показать это сообщение"

// Commands lists the commands shown in the Telegram client menu.
var Commands = []telebot.Command{
	{Text: "start", Description: "Начать поиск или регистрацию по номеру телефона"},
	{Text: "help", Description: "Показать список команд"},
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	client domainTelegram.Client,
	onboarding *app.OnboardingService,
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")

		// A cancelled dialog already shows the menu.
		if cancelActiveDialog(ctx, onboarding, chatID, "/start", logCtx) {
			logCtx.Info("Active registration cancelled by /start")
			return nil
		}
		return NewChatNotifier(client, chatID).ShowMainMenu(ctx)
	})

	b.Handle("/help", func(c telebot.Context) error {
		chatID := c.Chat().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /help command")

		if cancelActiveDialog(ctx, onboarding, chatID, "/help", logCtx) {
			logCtx.Info("Active registration cancelled by /help")
		}
		return c.Send(helpText)
	})
}
