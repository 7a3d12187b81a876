package telegram

import (
	"context"

	"crm_onboarding_bot/internal/domain/customer"
	domainTelegram "crm_onboarding_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(&telebot.Chat{ID: chatID}, text, options)
	return err
}

// ChatNotifier renders onboarding messages into one operator chat.
type ChatNotifier struct {
	client domainTelegram.Client
	chatID int64
}

func NewChatNotifier(client domainTelegram.Client, chatID int64) *ChatNotifier {
	return &ChatNotifier{client: client, chatID: chatID}
}

func (n *ChatNotifier) Prompt(ctx context.Context, text string) error {
	return n.send(ctx, text, &telebot.SendOptions{ReplyMarkup: skipKeyboard()})
}

func (n *ChatNotifier) Notify(ctx context.Context, text string) error {
	return n.send(ctx, text, nil)
}

func (n *ChatNotifier) ShowCustomer(ctx context.Context, record customer.Record) error {
	return n.send(ctx, formatCustomerCard(record), &telebot.SendOptions{ParseMode: telebot.ModeMarkdownV2})
}

func (n *ChatNotifier) ShowMainMenu(ctx context.Context) error {
	return n.send(ctx, mainMenuText, &telebot.SendOptions{ReplyMarkup: mainKeyboard()})
}

func (n *ChatNotifier) send(ctx context.Context, text string, options *telebot.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.client.SendMessage(n.chatID, text, options)
}
