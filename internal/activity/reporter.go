// Package activity records start/success/failure/pause events in the
// persistent activity log and mirrors them to the structured logger.
package activity

import (
	"context"
	"log/slog"

	"syndicator/internal/model"
	"syndicator/internal/storage"
)

// Reporter is the write-only sink components report their outcomes to.
type Reporter interface {
	Record(ctx context.Context, action model.Action, target model.Target, level model.Level, description string)
}

// Notifier receives warn and error entries for out-of-band delivery.
type Notifier interface {
	Notify(ctx context.Context, entry model.ActivityLog)
}

// Logger is the storage-backed Reporter. Recording never fails the
// calling operation: a log write that cannot be persisted is still
// emitted through slog.
type Logger struct {
	store    storage.Storage
	log      *slog.Logger
	notifier Notifier
}

// NewLogger creates a Logger without a notifier.
func NewLogger(store storage.Storage, log *slog.Logger) *Logger {
	return &Logger{store: store, log: log}
}

// SetNotifier forwards warn/error entries to n from now on.
func (l *Logger) SetNotifier(n Notifier) {
	l.notifier = n
}

// Record implements Reporter.
func (l *Logger) Record(ctx context.Context, action model.Action, target model.Target, level model.Level, description string) {
	entry := model.ActivityLog{
		Action:      action,
		Target:      target,
		Level:       level,
		Description: description,
	}
	if err := l.store.InsertActivityLog(ctx, &entry); err != nil {
		l.log.Error("persist activity entry", "action", action, "target", target, "error", err)
	}

	attrs := []any{"action", string(action), "target", string(target)}
	switch level {
	case model.LevelError:
		l.log.Error(description, attrs...)
	case model.LevelWarn:
		l.log.Warn(description, attrs...)
	default:
		l.log.Info(description, attrs...)
	}

	if l.notifier != nil && (level == model.LevelWarn || level == model.LevelError) {
		l.notifier.Notify(ctx, entry)
	}
}
