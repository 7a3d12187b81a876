package telegram

import (
	"fmt"
	"regexp"
	"strconv"

	"crm_onboarding_bot/internal/domain/customer"
	"crm_onboarding_bot/internal/domain/manager"

	"gopkg.in/telebot.v3"
)

const (
	mainMenuText      = "Выберите действие или введите номер телефона:"
	maxInlineResults  = 10
	inlineCacheTime   = 300 // seconds
	managerTextPrefix = "Менеджер:"
)

// Buttons are values; markups are built per message because telebot rewrites callback data
// in place when sending.
var (
	btnFindClient         = telebot.Btn{Unique: "find_client", Text: "Найти клиента"}
	btnSkip               = telebot.Btn{Unique: "skip", Text: "Пропустить"}
	btnSaveDefaultManager = telebot.Btn{Unique: "save_default_manager", Text: "Сохранить по умолчанию"}
	btnCalcConversion     = telebot.Btn{Text: "Посчитать конверсию"}
)

var markdownSpecial = regexp.MustCompile("[_*\\[\\]()~`>#+\\-=|{}.!]")

func mainKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(
		m.Row(btnFindClient),
		m.Row(m.QueryChat(btnCalcConversion.Text, "")),
	)
	return m
}

func skipKeyboard() *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(btnSkip))
	return m
}

func saveDefaultManagerKeyboard(managerID string) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	m.Inline(m.Row(m.Data(btnSaveDefaultManager.Text, btnSaveDefaultManager.Unique, managerID)))
	return m
}

// escapeMarkdown escapes every MarkdownV2 special character.
func escapeMarkdown(text string) string {
	return markdownSpecial.ReplaceAllString(text, `\$0`)
}

func formatCustomerCard(record customer.Record) string {
	avgBill := "N/A"
	if record.AvgBill != nil {
		avgBill = strconv.FormatFloat(*record.AvgBill, 'f', 2, 64)
	}
	return fmt.Sprintf("Номер Карты: `%s`\n\\(копируется нажатием\\)\nИмя: %s\nБаланс: %s\nСредний чек: %s",
		escapeMarkdown(record.CardNumber),
		escapeMarkdown(record.Name),
		escapeMarkdown(balanceText(record.Balance)),
		escapeMarkdown(avgBill),
	)
}

func balanceText(balance string) string {
	if balance == "" {
		return "0"
	}
	return balance
}

// managerResults renders at most maxInlineResults managers as inline query articles.
func managerResults(list []manager.WithStats) telebot.Results {
	if len(list) > maxInlineResults {
		list = list[:maxInlineResults]
	}
	results := make(telebot.Results, 0, len(list))
	for _, m := range list {
		article := &telebot.ArticleResult{
			Title:       m.Name,
			Description: fmt.Sprintf("Скачиваний: %d, Использований: %d", m.Stats.Registrations, m.Stats.Usages),
			Text: fmt.Sprintf("%s %s\nКол-во скачиваний: %d\nКол-во использований: %d",
				managerTextPrefix, m.Name, m.Stats.Registrations, m.Stats.Usages),
		}
		article.SetResultID(m.ID)
		article.ReplyMarkup = saveDefaultManagerKeyboard(m.ID)
		results = append(results, article)
	}
	return results
}
