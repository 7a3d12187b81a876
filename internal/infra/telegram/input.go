package telegram

import (
	"strings"

	"crm_onboarding_bot/internal/app"

	"gopkg.in/telebot.v3"
)

// isCommand reports whether Telegram marked the message as a bot command.
func isCommand(msg *telebot.Message) bool {
	if msg == nil {
		return false
	}
	for _, e := range msg.Entities {
		if e.Type == telebot.EntityCommand {
			return true
		}
	}
	return false
}

// inputFromMessage turns an operator message into dialog input.
func inputFromMessage(msg *telebot.Message) app.Input {
	if isCommand(msg) || strings.HasPrefix(msg.Text, "/") {
		return app.CommandInput(msg.Text)
	}
	return app.TextInput(msg.Text)
}

// ignoredText is text that is never a phone number: commands and the messages produced by
// the manager stats inline query.
func ignoredText(text string) bool {
	return strings.HasPrefix(text, "/") || strings.HasPrefix(text, managerTextPrefix)
}
