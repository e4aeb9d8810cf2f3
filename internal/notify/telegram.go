// Package notify delivers warn/error activity entries to an admin chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"

	"syndicator/internal/model"
)

// Sender is the subset of the Telegram API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram forwards activity entries to a single admin chat. Sends are
// retried with fibonacci backoff since Telegram throttles bursts.
type Telegram struct {
	api    Sender
	chatID int64
	log    *slog.Logger
}

// NewTelegram authorizes against the bot API and returns a notifier.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// NewTelegramWithSender creates a notifier over an existing sender,
// useful for tests.
func NewTelegramWithSender(api Sender, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, log: log}
}

// Notify sends one activity entry to the admin chat. Delivery is
// best-effort: a final failure is logged, never propagated.
func (t *Telegram) Notify(ctx context.Context, entry model.ActivityLog) {
	text := fmt.Sprintf("[%s] %s/%s: %s", entry.Level, entry.Target, entry.Action, entry.Description)

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		t.log.Error("send admin notification", "chat_id", t.chatID, "error", err)
	}
}
