package telegram

import (
	"context"
	"strings"
	"time"

	"crm_onboarding_bot/internal/app"
	"crm_onboarding_bot/internal/domain/customer"
	domainTelegram "crm_onboarding_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// dialogStepTimeout bounds one operator event, including submission retries and polling.
const dialogStepTimeout = 2 * time.Minute

const (
	msgAskPhone     = "Отправьте номер телефона для поиска информации"
	msgLookupFailed = "Произошла ошибка при поиске пользователя"
)

// RegisterOnboardingHandlers wires phone lookups and registration dialogs to the bot.
func RegisterOnboardingHandlers(ctx context.Context, b *telebot.Bot, client domainTelegram.Client, onboarding *app.OnboardingService, baseLogger *logrus.Entry) {
	handlerLogger := baseLogger.WithField("handler_group", "onboarding")

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		msg := c.Message()
		chatID := c.Chat().ID
		logCtx := handlerLogger.WithFields(logrus.Fields{
			"handler":   "text",
			"chat_id":   chatID,
			"sender_id": c.Sender().ID,
		})

		stepCtx, cancel := context.WithTimeout(ctx, dialogStepTimeout)
		defer cancel()

		if onboarding.HasActiveDialog(chatID) {
			step, handled, err := onboarding.Deliver(stepCtx, chatID, inputFromMessage(msg))
			if err != nil {
				logCtx.WithError(err).Error("Registration step failed")
				return nil
			}
			if handled {
				logCtx.WithField("step", step.String()).Debug("Dialog advanced")
				return nil
			}
		}

		if isCommand(msg) || ignoredText(msg.Text) {
			logCtx.Debug("Skipping non-phone text")
			return nil
		}

		logCtx.Info("Processing phone number")
		if err := onboarding.HandlePhone(stepCtx, chatID, strings.TrimSpace(msg.Text), NewChatNotifier(client, chatID)); err != nil {
			logCtx.WithError(err).Error("Failed to process phone number")
			if sendErr := c.Send(msgLookupFailed); sendErr != nil {
				return sendErr
			}
			return NewChatNotifier(client, chatID).ShowMainMenu(ctx)
		}
		return nil
	})

	b.Handle(&btnSkip, func(c telebot.Context) error {
		if err := c.Respond(); err != nil {
			handlerLogger.WithError(err).Warn("Failed to answer callback")
		}
		if c.Chat() == nil {
			return nil
		}
		chatID := c.Chat().ID
		logCtx := handlerLogger.WithFields(logrus.Fields{
			"handler": "skip",
			"chat_id": chatID,
		})

		stepCtx, cancel := context.WithTimeout(ctx, dialogStepTimeout)
		defer cancel()

		step, handled, err := onboarding.Deliver(stepCtx, chatID, app.SkipInput())
		if err != nil {
			logCtx.WithError(err).Error("Registration step failed")
			return nil
		}
		if !handled {
			logCtx.Debug("Skip pressed without an active dialog")
			return nil
		}
		logCtx.WithField("step", step.String()).Debug("Dialog advanced")
		return nil
	})

	b.Handle(&btnFindClient, func(c telebot.Context) error {
		if err := c.Respond(); err != nil {
			handlerLogger.WithError(err).Warn("Failed to answer callback")
		}
		if err := c.Send(msgAskPhone); err != nil {
			return err
		}
		return c.Send(customer.PhoneFormatsHint)
	})
}

// cancelActiveDialog delivers a command to the chat's dialog, which cancels it.
// It reports whether a dialog was running.
func cancelActiveDialog(ctx context.Context, onboarding *app.OnboardingService, chatID int64, command string, logCtx *logrus.Entry) bool {
	if !onboarding.HasActiveDialog(chatID) {
		return false
	}
	_, handled, err := onboarding.Deliver(ctx, chatID, app.CommandInput(command))
	if err != nil {
		logCtx.WithError(err).Error("Failed to cancel registration")
	}
	return handled
}
