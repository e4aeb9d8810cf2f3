// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"syndicator/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateArticle(ctx context.Context, a *model.Article) error
	GetArticle(ctx context.Context, id int64) (*model.Article, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]model.Article, error)
	PublishArticle(ctx context.Context, id int64, publishedAt time.Time) error

	GetPlatformConfig(ctx context.Context, p model.Platform) (*model.PlatformConfig, error)
	SavePlatformConfig(ctx context.Context, cfg *model.PlatformConfig) error
	ListPlatformConfigs(ctx context.Context) ([]model.PlatformConfig, error)

	UpsertSocialPost(ctx context.Context, articleID int64, p model.Platform, url string) error
	GetSocialPost(ctx context.Context, articleID int64, p model.Platform) (*model.SocialPost, error)
	ListSocialPosts(ctx context.Context, p model.Platform) ([]model.SocialPost, error)
	ListUnpostedArticleIDs(ctx context.Context, p model.Platform) ([]int64, error)

	UpsertComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, articleID int64) ([]model.Comment, error)

	InsertActivityLog(ctx context.Context, entry *model.ActivityLog) error
	ListActivityLogs(ctx context.Context) ([]model.ActivityLog, error)

	Close() error
}
