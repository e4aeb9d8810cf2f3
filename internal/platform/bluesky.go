package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"syndicator/internal/model"
)

const (
	blueskyPDS     = "https://bsky.social"
	blueskyAppView = "https://public.api.bsky.app"
	blueskyWebBase = "https://bsky.app"
)

// BlueskyClient talks to an AT Protocol PDS for posting and to the public
// app view for reading reply threads.
type BlueskyClient struct {
	cfg  model.PlatformConfig
	http HTTPClient
}

var _ Client = (*BlueskyClient)(nil)

// Platform implements Client.
func (c *BlueskyClient) Platform() model.Platform { return model.Bluesky }

type blueskySession struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

// Post creates an app.bsky.feed.post record and returns its web URL.
// When the post carries an outbound link, it is attached as an external
// embed so clients render a link card.
func (c *BlueskyClient) Post(ctx context.Context, post Post) (string, error) {
	sess, err := c.createSession(ctx)
	if err != nil {
		return "", err
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      ComposeStatus(post, c.cfg.EffectiveMaxCharacters()),
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if post.Link != "" {
		record["embed"] = map[string]any{
			"$type": "app.bsky.embed.external",
			"external": map[string]any{
				"uri":         post.Link,
				"title":       post.Title,
				"description": truncateRunes(post.Excerpt, 300),
			},
		}
	}

	payload, err := json.Marshal(map[string]any{
		"repo":       sess.DID,
		"collection": "app.bsky.feed.post",
		"record":     record,
	})
	if err != nil {
		return "", transportError(model.Bluesky, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.pdsURL()+"/xrpc/com.atproto.repo.createRecord", bytes.NewReader(payload))
	if err != nil {
		return "", transportError(model.Bluesky, err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessJwt)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(model.Bluesky, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(model.Bluesky, resp)
	}

	var created struct {
		URI string `json:"uri"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		return "", transportError(model.Bluesky, err)
	}
	rkey := lastPathSegment(created.URI)
	return fmt.Sprintf("%s/profile/%s/post/%s", blueskyWebBase, sess.Handle, rkey), nil
}

// FetchComments reads the reply thread of a post via the public app view.
func (c *BlueskyClient) FetchComments(ctx context.Context, externalURL string) (*FetchResult, error) {
	handle, rkey, err := splitBlueskyPostURL(externalURL)
	if err != nil {
		return nil, transportError(model.Bluesky, err)
	}

	did, err := c.resolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	atURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, rkey)
	endpoint := c.appViewURL() + "/xrpc/app.bsky.feed.getPostThread?depth=1&uri=" + url.QueryEscape(atURI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, transportError(model.Bluesky, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(model.Bluesky, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(model.Bluesky, resp)
	}

	var body struct {
		Thread struct {
			Replies []struct {
				Post struct {
					URI    string `json:"uri"`
					Author struct {
						DisplayName string `json:"displayName"`
						Handle      string `json:"handle"`
						Avatar      string `json:"avatar"`
					} `json:"author"`
					Record struct {
						Text      string    `json:"text"`
						CreatedAt time.Time `json:"createdAt"`
					} `json:"record"`
				} `json:"post"`
			} `json:"replies"`
		} `json:"thread"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, transportError(model.Bluesky, err)
	}

	result := &FetchResult{
		RateLimit: rateLimitFromHeaders(resp.Header,
			"RateLimit-Remaining", "RateLimit-Limit", "RateLimit-Reset",
			parseUnixReset),
	}
	for _, r := range body.Thread.Replies {
		published := r.Post.Record.CreatedAt
		replyRkey := lastPathSegment(r.Post.URI)
		result.Comments = append(result.Comments, RawComment{
			ExternalID:      r.Post.URI,
			AuthorName:      r.Post.Author.DisplayName,
			AuthorUsername:  "@" + r.Post.Author.Handle,
			AuthorAvatarURL: r.Post.Author.Avatar,
			Content:         r.Post.Record.Text,
			URL:             fmt.Sprintf("%s/profile/%s/post/%s", blueskyWebBase, r.Post.Author.Handle, replyRkey),
			PublishedAt:     &published,
		})
	}
	return result, nil
}

func (c *BlueskyClient) createSession(ctx context.Context) (*blueskySession, error) {
	payload, err := json.Marshal(map[string]string{
		"identifier": c.cfg.Username,
		"password":   c.cfg.AppPassword,
	})
	if err != nil {
		return nil, transportError(model.Bluesky, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.pdsURL()+"/xrpc/com.atproto.server.createSession", bytes.NewReader(payload))
	if err != nil {
		return nil, transportError(model.Bluesky, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(model.Bluesky, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(model.Bluesky, resp)
	}

	var sess blueskySession
	if err := decodeJSON(resp, &sess); err != nil {
		return nil, transportError(model.Bluesky, err)
	}
	return &sess, nil
}

func (c *BlueskyClient) resolveHandle(ctx context.Context, handle string) (string, error) {
	endpoint := c.appViewURL() + "/xrpc/com.atproto.identity.resolveHandle?handle=" + url.QueryEscape(handle)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", transportError(model.Bluesky, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(model.Bluesky, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(model.Bluesky, resp)
	}

	var body struct {
		DID string `json:"did"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return "", transportError(model.Bluesky, err)
	}
	return body.DID, nil
}

// splitBlueskyPostURL extracts the handle and record key from a
// https://bsky.app/profile/{handle}/post/{rkey} URL.
func splitBlueskyPostURL(rawURL string) (handle, rkey string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse post url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "profile" || parts[2] != "post" {
		return "", "", fmt.Errorf("unexpected bluesky post url %q", rawURL)
	}
	return parts[1], parts[3], nil
}

func (c *BlueskyClient) pdsURL() string {
	if s := strings.TrimRight(strings.TrimSpace(c.cfg.ServerURL), "/"); s != "" {
		return s
	}
	return blueskyPDS
}

func (c *BlueskyClient) appViewURL() string {
	if s := strings.TrimRight(strings.TrimSpace(c.cfg.ServerURL), "/"); s != "" {
		return s
	}
	return blueskyAppView
}
