// Package crosspost publishes articles to external social platforms.
package crosspost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"syndicator/internal/activity"
	"syndicator/internal/links"
	"syndicator/internal/model"
	"syndicator/internal/platform"
	"syndicator/internal/storage"
)

// Dispatcher publishes one article to one platform per invocation.
// It does not retry: a propagated error is the caller's signal to
// schedule another attempt.
type Dispatcher struct {
	store    storage.Storage
	reporter activity.Reporter
	clients  platform.Factory
	log      *slog.Logger
	siteURL  string
}

// New creates a Dispatcher using the real platform clients. siteURL is
// the public base URL of the site, used to build canonical article links.
func New(store storage.Storage, reporter activity.Reporter, log *slog.Logger, siteURL string) *Dispatcher {
	return NewWithFactory(store, reporter, log, siteURL, platform.NewClient)
}

// NewWithFactory creates a Dispatcher with a custom client factory
// (useful for testing).
func NewWithFactory(store storage.Storage, reporter activity.Reporter, log *slog.Logger, siteURL string, clients platform.Factory) *Dispatcher {
	return &Dispatcher{
		store:    store,
		reporter: reporter,
		clients:  clients,
		log:      log,
		siteURL:  siteURL,
	}
}

// Dispatch publishes the article to the named platform and records the
// resulting external URL. A missing article, a missing config, and a
// disabled platform are silent no-ops: dispatch races with deletion and
// with config edits, and neither is a failure. Remote failures are
// reported to the activity log and then returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, articleID int64, platformName string) error {
	article, err := d.store.GetArticle(ctx, articleID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	p := model.Platform(platformName)
	cfg, err := d.store.GetPlatformConfig(ctx, p)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}

	d.log.Debug("dispatching crosspost", "article_id", articleID, "platform", platformName)

	client, err := d.clients(*cfg)
	if err != nil {
		d.reportFailure(ctx, article, p, err)
		return err
	}

	postURL, err := client.Post(ctx, d.buildPost(article))
	if err != nil {
		d.reportFailure(ctx, article, p, err)
		return err
	}
	if postURL == "" {
		// The platform accepted the call but created nothing; there is
		// no row to write and nothing to report.
		return nil
	}

	if err := d.store.UpsertSocialPost(ctx, article.ID, p, postURL); err != nil {
		d.reportFailure(ctx, article, p, err)
		return err
	}

	d.reporter.Record(ctx, model.ActionPosted, model.TargetCrosspost, model.LevelInfo,
		fmt.Sprintf("posted %q to %s: %s", article.Title, p, postURL))
	return nil
}

func (d *Dispatcher) reportFailure(ctx context.Context, article *model.Article, p model.Platform, err error) {
	d.reporter.Record(ctx, model.ActionFailed, model.TargetCrosspost, model.LevelError,
		fmt.Sprintf("crosspost %q to %s failed: %v", article.Title, p, err))
}

func (d *Dispatcher) buildPost(a *model.Article) platform.Post {
	canonical := strings.TrimRight(d.siteURL, "/") + "/articles/" + a.Slug
	link := canonical
	if outbound := links.Extract(a.SourceURL, a.HTMLContent); len(outbound) > 0 {
		link = outbound[0]
	}
	return platform.Post{
		Title:   a.Title,
		Excerpt: links.Text(a.HTMLContent),
		URL:     canonical,
		Link:    link,
	}
}
