package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"syndicator/internal/model"
)

type fakeSender struct {
	failures int
	sent     []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, errors.New("too many requests")
	}
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable type")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFormatsMessage(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramWithSender(sender, 42, discardLogger())

	n.Notify(context.Background(), model.ActivityLog{
		Action:      model.ActionFailed,
		Target:      model.TargetCrosspost,
		Level:       model.LevelError,
		Description: `crosspost "one" to mastodon failed: 503`,
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 42 {
		t.Errorf("chat id = %d, want 42", msg.ChatID)
	}
	want := `[error] crosspost/failed: crosspost "one" to mastodon failed: 503`
	if diff := cmp.Diff(want, msg.Text); diff != "" {
		t.Errorf("message text mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	sender := &fakeSender{failures: 1}
	n := NewTelegramWithSender(sender, 42, discardLogger())

	n.Notify(context.Background(), model.ActivityLog{
		Action:      model.ActionPaused,
		Target:      model.TargetFetchComments,
		Level:       model.LevelWarn,
		Description: "paused mastodon comment fetch",
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected delivery after retry, got %d messages", len(sender.sent))
	}
}

func TestNotifyGivesUpAfterRetries(t *testing.T) {
	sender := &fakeSender{failures: 10}
	n := NewTelegramWithSender(sender, 42, discardLogger())

	// Must not panic or propagate: delivery is best-effort.
	n.Notify(context.Background(), model.ActivityLog{
		Action:      model.ActionFailed,
		Target:      model.TargetCrosspost,
		Level:       model.LevelError,
		Description: "crosspost failed",
	})

	if len(sender.sent) != 0 {
		t.Errorf("expected no delivery, got %d messages", len(sender.sent))
	}
}
