package activity

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"syndicator/internal/model"
	"syndicator/internal/storage"
)

type recordingNotifier struct {
	entries []model.ActivityLog
}

func (n *recordingNotifier) Notify(_ context.Context, entry model.ActivityLog) {
	n.entries = append(n.entries, entry)
}

func newTestLogger(t *testing.T) (*Logger, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewLogger(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestRecordPersistsEntry(t *testing.T) {
	l, store := newTestLogger(t)
	ctx := context.Background()

	l.Record(ctx, model.ActionPosted, model.TargetCrosspost, model.LevelInfo, `posted "one" to mastodon`)

	logs, err := store.ListActivityLogs(ctx)
	if err != nil {
		t.Fatalf("list activity logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
	got := logs[0]
	want := model.ActivityLog{
		ID:          got.ID,
		Action:      model.ActionPosted,
		Target:      model.TargetCrosspost,
		Level:       model.LevelInfo,
		Description: `posted "one" to mastodon`,
		CreatedAt:   got.CreatedAt,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordNotifiesOnWarnAndError(t *testing.T) {
	l, _ := newTestLogger(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	l.SetNotifier(notifier)

	l.Record(ctx, model.ActionStarted, model.TargetFetchComments, model.LevelInfo, "fetching comments from mastodon")
	l.Record(ctx, model.ActionPaused, model.TargetFetchComments, model.LevelWarn, "paused mastodon comment fetch")
	l.Record(ctx, model.ActionFailed, model.TargetCrosspost, model.LevelError, "crosspost failed")

	if len(notifier.entries) != 2 {
		t.Fatalf("expected warn and error to be forwarded, got %d entries", len(notifier.entries))
	}
	if notifier.entries[0].Level != model.LevelWarn || notifier.entries[1].Level != model.LevelError {
		t.Errorf("unexpected forwarded levels %+v", notifier.entries)
	}
}

func TestRecordWithoutNotifier(t *testing.T) {
	l, store := newTestLogger(t)
	ctx := context.Background()

	// No notifier configured: warn entries still persist.
	l.Record(ctx, model.ActionPaused, model.TargetFetchComments, model.LevelWarn, "paused")

	logs, err := store.ListActivityLogs(ctx)
	if err != nil {
		t.Fatalf("list activity logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
}
