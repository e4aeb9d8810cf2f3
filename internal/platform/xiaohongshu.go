package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"syndicator/internal/model"
)

// XiaohongshuClient publishes through a self-hosted bridge endpoint, since
// the platform exposes no public write API. Without a configured bridge
// the client reports "nothing posted" instead of failing, so the platform
// can stay enabled while the bridge is offline for maintenance.
type XiaohongshuClient struct {
	cfg  model.PlatformConfig
	http HTTPClient
}

var _ Client = (*XiaohongshuClient)(nil)

// Platform implements Client.
func (c *XiaohongshuClient) Platform() model.Platform { return model.Xiaohongshu }

// Post sends the note to the bridge and returns the resulting URL.
// An unset bridge URL yields an empty URL and no error.
func (c *XiaohongshuClient) Post(ctx context.Context, post Post) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.cfg.ServerURL), "/")
	if base == "" {
		return "", nil
	}

	payload, err := json.Marshal(map[string]string{
		"title":   post.Title,
		"content": ComposeStatus(post, c.cfg.EffectiveMaxCharacters()),
		"url":     post.URL,
	})
	if err != nil {
		return "", transportError(model.Xiaohongshu, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/notes", bytes.NewReader(payload))
	if err != nil {
		return "", transportError(model.Xiaohongshu, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(model.Xiaohongshu, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", apiError(model.Xiaohongshu, resp)
	}

	var created struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		return "", transportError(model.Xiaohongshu, err)
	}
	return created.URL, nil
}

// FetchComments reports an empty result: the bridge is write-only and the
// platform has no comments API.
func (c *XiaohongshuClient) FetchComments(_ context.Context, _ string) (*FetchResult, error) {
	return &FetchResult{}, nil
}
