package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"li-post-bot/internal/domain"
)

// Telegram доставляет напоминания о публикации в личный чат пользователя.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

var _ domain.Notifier = (*Telegram)(nil)

// NewTelegram создаёт нотификатор.
func NewTelegram(api *tgbotapi.BotAPI, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

// Notify отправляет текстовое напоминание.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("отправка напоминания: %w", err)
	}
	return nil
}
