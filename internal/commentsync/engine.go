// Package commentsync mirrors remote comments on syndicated posts back
// into the local content store.
package commentsync

import (
	"context"
	"fmt"
	"log/slog"

	"syndicator/internal/activity"
	"syndicator/internal/model"
	"syndicator/internal/platform"
	"syndicator/internal/storage"
)

// Engine sweeps every platform that has comment auto-fetch enabled.
type Engine struct {
	store    storage.Storage
	reporter activity.Reporter
	clients  platform.Factory
	log      *slog.Logger
}

// New creates an Engine using the real platform clients.
func New(store storage.Storage, reporter activity.Reporter, log *slog.Logger) *Engine {
	return NewWithFactory(store, reporter, log, platform.NewClient)
}

// NewWithFactory creates an Engine with a custom client factory
// (useful for testing).
func NewWithFactory(store storage.Storage, reporter activity.Reporter, log *slog.Logger, clients platform.Factory) *Engine {
	return &Engine{
		store:    store,
		reporter: reporter,
		clients:  clients,
		log:      log,
	}
}

// SyncAll runs one sweep over all eligible platforms, in declared
// platform order. With nothing eligible the sweep does no work and
// writes no log entries.
func (e *Engine) SyncAll(ctx context.Context) error {
	configs, err := e.store.ListPlatformConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list platform configs: %w", err)
	}
	for _, cfg := range configs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !cfg.Enabled || !cfg.AutoFetchComments {
			continue
		}
		e.syncPlatform(ctx, cfg)
	}
	return nil
}

// syncPlatform walks the platform's social posts in ascending article
// order. A failed fetch for one article is reported and skipped; a
// critical rate-limit snapshot pauses the rest of the platform's posts
// until the next sweep.
func (e *Engine) syncPlatform(ctx context.Context, cfg model.PlatformConfig) {
	e.reporter.Record(ctx, model.ActionStarted, model.TargetFetchComments, model.LevelInfo,
		fmt.Sprintf("fetching comments from %s", cfg.Platform))

	client, err := e.clients(cfg)
	if err != nil {
		e.reporter.Record(ctx, model.ActionFailed, model.TargetFetchComments, model.LevelError,
			fmt.Sprintf("fetching comments from %s failed: %v", cfg.Platform, err))
		return
	}

	posts, err := e.store.ListSocialPosts(ctx, cfg.Platform)
	if err != nil {
		e.reporter.Record(ctx, model.ActionFailed, model.TargetFetchComments, model.LevelError,
			fmt.Sprintf("fetching comments from %s failed: %v", cfg.Platform, err))
		return
	}

	for _, post := range posts {
		if ctx.Err() != nil {
			return
		}

		result, err := client.FetchComments(ctx, post.URL)
		if err != nil {
			e.reporter.Record(ctx, model.ActionFailed, model.TargetFetchComments, model.LevelError,
				fmt.Sprintf("fetching %s comments for article %d failed: %v", cfg.Platform, post.ArticleID, err))
			continue
		}

		for _, raw := range result.Comments {
			comment := model.Comment{
				ArticleID:       post.ArticleID,
				Platform:        cfg.Platform,
				ExternalID:      raw.ExternalID,
				AuthorName:      raw.AuthorName,
				AuthorUsername:  raw.AuthorUsername,
				AuthorAvatarURL: raw.AuthorAvatarURL,
				Content:         raw.Content,
				URL:             raw.URL,
				PublishedAt:     raw.PublishedAt,
			}
			if err := e.store.UpsertComment(ctx, &comment); err != nil {
				e.log.Error("upsert comment", "platform", cfg.Platform,
					"article_id", post.ArticleID, "external_id", raw.ExternalID, "error", err)
			}
		}

		if platform.Decide(result.RateLimit) == platform.DecisionPause {
			e.reporter.Record(ctx, model.ActionPaused, model.TargetFetchComments, model.LevelWarn,
				pauseDescription(cfg.Platform, result.RateLimit))
			return
		}
	}

	e.reporter.Record(ctx, model.ActionCompleted, model.TargetFetchComments, model.LevelInfo,
		fmt.Sprintf("fetched comments from %s", cfg.Platform))
}

func pauseDescription(p model.Platform, rl *model.RateLimit) string {
	desc := fmt.Sprintf("paused %s comment fetch: %d/%d calls remaining", p, rl.Remaining, rl.Limit)
	if !rl.ResetAt.IsZero() {
		desc += fmt.Sprintf(", resets at %s", rl.ResetAt.Format("2006-01-02 15:04:05 UTC"))
	}
	return desc
}
