// Package platform contains the per-platform API clients and the
// rate-limit decision logic shared by the dispatch and sync paths.
package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"syndicator/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Post is the platform-agnostic content of one outgoing post.
type Post struct {
	Title   string
	Excerpt string
	URL     string // canonical article URL, always kept in the post
	Link    string // first outbound link, used for link embeds where supported
}

// RawComment mirrors one remote comment as returned by a platform API.
type RawComment struct {
	ExternalID      string
	AuthorName      string
	AuthorUsername  string
	AuthorAvatarURL string
	Content         string
	URL             string
	PublishedAt     *time.Time
}

// FetchResult is the outcome of one comment fetch: the comments in the
// order the platform returned them, plus the platform's rate-limit
// snapshot when it reported one.
type FetchResult struct {
	Comments  []RawComment
	RateLimit *model.RateLimit
}

// Client is the capability set every platform adapter implements.
type Client interface {
	// Platform returns the platform this client talks to.
	Platform() model.Platform

	// Post publishes the given content, truncated to the platform's
	// effective length limit, and returns the URL of the created post.
	// An empty URL with a nil error means nothing was posted.
	Post(ctx context.Context, post Post) (string, error)

	// FetchComments returns the remote comments on a previously
	// published post, identified by its external URL.
	FetchComments(ctx context.Context, externalURL string) (*FetchResult, error)
}

// APIError is a transport, auth, or remote-service failure from a
// platform API.
type APIError struct {
	Platform   model.Platform
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api: status %d: %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s api: %s", e.Platform, e.Message)
}

// Factory builds a client for a platform configuration.
type Factory func(cfg model.PlatformConfig) (Client, error)

const requestTimeout = 30 * time.Second

// NewClient returns the adapter matching the config's platform, using an
// HTTP client with the default request timeout.
func NewClient(cfg model.PlatformConfig) (Client, error) {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: requestTimeout})
}

// NewClientWithHTTP is NewClient with an injectable transport, for tests.
func NewClientWithHTTP(cfg model.PlatformConfig, httpc HTTPClient) (Client, error) {
	switch cfg.Platform {
	case model.Mastodon:
		return &MastodonClient{cfg: cfg, http: httpc}, nil
	case model.Twitter:
		return &TwitterClient{cfg: cfg, http: httpc}, nil
	case model.Bluesky:
		return &BlueskyClient{cfg: cfg, http: httpc}, nil
	case model.Xiaohongshu:
		return &XiaohongshuClient{cfg: cfg, http: httpc}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
	}
}
