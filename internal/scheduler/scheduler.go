// Package scheduler drives the periodic work: publishing due articles,
// dispatching missing crossposts, and sweeping remote comments.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"syndicator/internal/commentsync"
	"syndicator/internal/crosspost"
	"syndicator/internal/storage"
)

// Scheduler re-derives pending work from storage on every tick, so each
// unit of work runs at least once even across restarts: a published
// article without a social post on an enabled platform is dispatched
// again until the upsert lands.
type Scheduler struct {
	store      storage.Storage
	dispatcher *crosspost.Dispatcher
	syncer     *commentsync.Engine
	log        *slog.Logger
	tick       time.Duration
	syncEvery  time.Duration
	lastSync   time.Time
}

// New creates a Scheduler with the default intervals.
func New(store storage.Storage, dispatcher *crosspost.Dispatcher, syncer *commentsync.Engine, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		syncer:     syncer,
		log:        log,
		tick:       1 * time.Minute,
		syncEvery:  30 * time.Minute,
	}
}

// SetTickInterval overrides the default 1-minute tick.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetSyncInterval overrides the default 30-minute comment sweep interval.
func (s *Scheduler) SetSyncInterval(d time.Duration) {
	s.syncEvery = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.publishDue(ctx)
	s.dispatchPending(ctx)

	if time.Since(s.lastSync) >= s.syncEvery {
		s.lastSync = time.Now()
		if err := s.syncer.SyncAll(ctx); err != nil {
			s.log.Error("comment sweep", "error", err)
		}
	}
}

// publishDue transitions scheduled articles whose time has passed.
func (s *Scheduler) publishDue(ctx context.Context) {
	due, err := s.store.ListDueScheduled(ctx, time.Now())
	if err != nil {
		s.log.Error("list due scheduled articles", "error", err)
		return
	}
	for _, article := range due {
		if ctx.Err() != nil {
			return
		}
		if err := s.store.PublishArticle(ctx, article.ID, time.Now()); err != nil {
			s.log.Error("publish article", "article_id", article.ID, "error", err)
			continue
		}
		s.log.Info("published scheduled article", "article_id", article.ID, "slug", article.Slug)
	}
}

// dispatchPending crossposts every published article that has no social
// post yet on an enabled platform. Failures are logged and retried on
// the next tick.
func (s *Scheduler) dispatchPending(ctx context.Context) {
	configs, err := s.store.ListPlatformConfigs(ctx)
	if err != nil {
		s.log.Error("list platform configs", "error", err)
		return
	}
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		ids, err := s.store.ListUnpostedArticleIDs(ctx, cfg.Platform)
		if err != nil {
			s.log.Error("list unposted articles", "platform", cfg.Platform, "error", err)
			continue
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			if err := s.dispatcher.Dispatch(ctx, id, string(cfg.Platform)); err != nil {
				s.log.Error("dispatch crosspost", "article_id", id, "platform", cfg.Platform, "error", err)
			}
		}
	}
}
