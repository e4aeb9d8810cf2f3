package platform

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"syndicator/internal/links"
	"syndicator/internal/model"
)

// MastodonClient posts statuses and reads reply threads through the
// Mastodon REST API of the configured server.
type MastodonClient struct {
	cfg  model.PlatformConfig
	http HTTPClient
}

var _ Client = (*MastodonClient)(nil)

// Platform implements Client.
func (c *MastodonClient) Platform() model.Platform { return model.Mastodon }

// Post publishes a public status and returns its URL.
func (c *MastodonClient) Post(ctx context.Context, post Post) (string, error) {
	form := url.Values{
		"status":     {ComposeStatus(post, c.cfg.EffectiveMaxCharacters())},
		"visibility": {"public"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL()+"/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return "", transportError(model.Mastodon, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(model.Mastodon, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(model.Mastodon, resp)
	}

	var status struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(resp, &status); err != nil {
		return "", transportError(model.Mastodon, err)
	}
	return status.URL, nil
}

// FetchComments returns the descendants of a previously posted status.
func (c *MastodonClient) FetchComments(ctx context.Context, externalURL string) (*FetchResult, error) {
	statusID := lastPathSegment(externalURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL()+"/api/v1/statuses/"+url.PathEscape(statusID)+"/context", nil)
	if err != nil {
		return nil, transportError(model.Mastodon, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(model.Mastodon, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(model.Mastodon, resp)
	}

	var body struct {
		Descendants []struct {
			ID        string    `json:"id"`
			URL       string    `json:"url"`
			Content   string    `json:"content"`
			CreatedAt time.Time `json:"created_at"`
			Account   struct {
				DisplayName string `json:"display_name"`
				Acct        string `json:"acct"`
				Avatar      string `json:"avatar"`
			} `json:"account"`
		} `json:"descendants"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, transportError(model.Mastodon, err)
	}

	result := &FetchResult{
		RateLimit: rateLimitFromHeaders(resp.Header,
			"X-RateLimit-Remaining", "X-RateLimit-Limit", "X-RateLimit-Reset",
			parseTimeReset),
	}
	for _, d := range body.Descendants {
		published := d.CreatedAt
		result.Comments = append(result.Comments, RawComment{
			ExternalID:      d.ID,
			AuthorName:      d.Account.DisplayName,
			AuthorUsername:  "@" + d.Account.Acct,
			AuthorAvatarURL: d.Account.Avatar,
			Content:         links.Text(d.Content),
			URL:             d.URL,
			PublishedAt:     &published,
		})
	}
	return result, nil
}

func (c *MastodonClient) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.cfg.ServerURL), "/")
}
