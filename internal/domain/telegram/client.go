package telegram

import (
	"context"

	"crm_onboarding_bot/internal/domain/customer"

	"gopkg.in/telebot.v3"
)

// Client defines an interface for sending messages via a Telegram bot.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}

// Notifier is the operator chat seen from the onboarding flow. One Notifier is bound to one chat.
type Notifier interface {
	// Prompt asks a question and offers the skip button.
	Prompt(ctx context.Context, text string) error
	Notify(ctx context.Context, text string) error
	ShowCustomer(ctx context.Context, record customer.Record) error
	ShowMainMenu(ctx context.Context) error
}
