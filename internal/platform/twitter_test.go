package platform

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"syndicator/internal/model"
)

func twitterConfig() model.PlatformConfig {
	return model.PlatformConfig{
		Platform:          model.Twitter,
		Enabled:           true,
		APIKey:            "consumer-key",
		APIKeySecret:      "consumer-secret",
		AccessToken:       "access-token",
		AccessTokenSecret: "access-secret",
	}
}

func TestTwitterPost(t *testing.T) {
	transport := &mockTransport{
		statusCode: 201,
		body:       `{"data":{"id":"1790","text":"Release notes"}}`,
	}
	client, err := NewClientWithHTTP(twitterConfig(), transport)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	got, err := client.Post(context.Background(), Post{
		Title: "Release notes",
		URL:   "https://blog.example/articles/release-notes",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if diff := cmp.Diff("https://twitter.com/i/web/status/1790", got); diff != "" {
		t.Errorf("post URL mismatch (-want +got):\n%s", diff)
	}

	req := transport.requests[0]
	if diff := cmp.Diff("/2/tweets", req.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	for _, fragment := range []string{
		"OAuth ",
		`oauth_consumer_key="consumer-key"`,
		`oauth_token="access-token"`,
		`oauth_signature_method="HMAC-SHA1"`,
		"oauth_signature=",
	} {
		if !strings.Contains(req.Auth, fragment) {
			t.Errorf("authorization header %q missing %q", req.Auth, fragment)
		}
	}
	if !strings.Contains(req.Body, "https://blog.example/articles/release-notes") {
		t.Errorf("tweet body %q missing article URL", req.Body)
	}
}

func TestTwitterPostForbidden(t *testing.T) {
	transport := &mockTransport{statusCode: 403, body: `{"detail":"Forbidden"}`}
	client, _ := NewClientWithHTTP(twitterConfig(), transport)

	_, err := client.Post(context.Background(), Post{Title: "t", URL: "https://b.example/x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if diff := cmp.Diff(model.Twitter, apiErr.Platform); diff != "" {
		t.Errorf("platform mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(403, apiErr.StatusCode); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestTwitterFetchComments(t *testing.T) {
	header := http.Header{}
	header.Set("X-Rate-Limit-Remaining", "179")
	header.Set("X-Rate-Limit-Limit", "180")
	header.Set("X-Rate-Limit-Reset", "1788264000")

	transport := &mockTransport{
		statusCode: 200,
		header:     header,
		body: `{
			"data": [
				{
					"id": "1801",
					"text": "Great article!",
					"author_id": "99",
					"created_at": "2026-08-30T09:30:00.000Z"
				}
			],
			"includes": {
				"users": [
					{
						"id": "99",
						"name": "Test Reader",
						"username": "reader",
						"profile_image_url": "https://pbs.twimg.com/reader.jpg"
					}
				]
			},
			"meta": {"result_count": 1}
		}`,
	}
	client, _ := NewClientWithHTTP(twitterConfig(), transport)

	got, err := client.FetchComments(context.Background(), "https://twitter.com/i/web/status/1790")
	if err != nil {
		t.Fatalf("fetch comments: %v", err)
	}

	published := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	want := &FetchResult{
		Comments: []RawComment{
			{
				ExternalID:      "1801",
				AuthorName:      "Test Reader",
				AuthorUsername:  "@reader",
				AuthorAvatarURL: "https://pbs.twimg.com/reader.jpg",
				Content:         "Great article!",
				URL:             "https://twitter.com/reader/status/1801",
				PublishedAt:     &published,
			},
		},
		RateLimit: &model.RateLimit{
			Remaining: 179,
			Limit:     180,
			ResetAt:   time.Unix(1788264000, 0).UTC(),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchComments() mismatch (-want +got):\n%s", diff)
	}

	req := transport.requests[0]
	if !strings.Contains(req.Auth, "OAuth ") {
		t.Errorf("expected signed request, got auth %q", req.Auth)
	}
}

func TestTwitterFetchCommentsEmptyConversation(t *testing.T) {
	transport := &mockTransport{statusCode: 200, body: `{"meta":{"result_count":0}}`}
	client, _ := NewClientWithHTTP(twitterConfig(), transport)

	got, err := client.FetchComments(context.Background(), "https://twitter.com/i/web/status/1790")
	if err != nil {
		t.Fatalf("fetch comments: %v", err)
	}
	if len(got.Comments) != 0 {
		t.Errorf("expected no comments, got %d", len(got.Comments))
	}
}
