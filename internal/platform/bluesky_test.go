package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"syndicator/internal/model"
)

type cannedResponse struct {
	statusCode int
	body       string
	header     http.Header
}

// routeTransport maps request paths to canned responses.
type routeTransport struct {
	routes   map[string]cannedResponse
	requests []recordedRequest
}

func (r *routeTransport) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	r.requests = append(r.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Auth:   req.Header.Get("Authorization"),
		Body:   body,
	})
	canned, ok := r.routes[req.URL.Path]
	if !ok {
		return &http.Response{StatusCode: 404, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("no route"))}, nil
	}
	header := canned.header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: canned.statusCode,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(canned.body)),
	}, nil
}

func blueskyConfig() model.PlatformConfig {
	return model.PlatformConfig{
		Platform:    model.Bluesky,
		Enabled:     true,
		Username:    "author.bsky.social",
		AppPassword: "app-pass",
	}
}

func TestBlueskyPost(t *testing.T) {
	transport := &routeTransport{routes: map[string]cannedResponse{
		"/xrpc/com.atproto.server.createSession": {
			statusCode: 200,
			body:       `{"accessJwt":"jwt-1","did":"did:plc:abc","handle":"author.bsky.social"}`,
		},
		"/xrpc/com.atproto.repo.createRecord": {
			statusCode: 200,
			body:       `{"uri":"at://did:plc:abc/app.bsky.feed.post/3kxyz","cid":"bafy"}`,
		},
	}}
	client, err := NewClientWithHTTP(blueskyConfig(), transport)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	got, err := client.Post(context.Background(), Post{
		Title:   "Release notes",
		Excerpt: "What changed",
		URL:     "https://blog.example/articles/release-notes",
		Link:    "https://blog.example/articles/release-notes",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if diff := cmp.Diff("https://bsky.app/profile/author.bsky.social/post/3kxyz", got); diff != "" {
		t.Errorf("post URL mismatch (-want +got):\n%s", diff)
	}

	if len(transport.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(transport.requests))
	}
	create := transport.requests[1]
	if diff := cmp.Diff("Bearer jwt-1", create.Auth); diff != "" {
		t.Errorf("auth mismatch (-want +got):\n%s", diff)
	}

	var payload struct {
		Repo       string `json:"repo"`
		Collection string `json:"collection"`
		Record     struct {
			Type  string `json:"$type"`
			Text  string `json:"text"`
			Embed *struct {
				Type     string `json:"$type"`
				External struct {
					URI string `json:"uri"`
				} `json:"external"`
			} `json:"embed"`
		} `json:"record"`
	}
	if err := json.Unmarshal([]byte(create.Body), &payload); err != nil {
		t.Fatalf("unmarshal create body: %v", err)
	}
	if diff := cmp.Diff("did:plc:abc", payload.Repo); diff != "" {
		t.Errorf("repo mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("app.bsky.feed.post", payload.Collection); diff != "" {
		t.Errorf("collection mismatch (-want +got):\n%s", diff)
	}
	if payload.Record.Embed == nil {
		t.Fatal("expected external embed for outbound link")
	}
	if diff := cmp.Diff("app.bsky.embed.external", payload.Record.Embed.Type); diff != "" {
		t.Errorf("embed type mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("https://blog.example/articles/release-notes", payload.Record.Embed.External.URI); diff != "" {
		t.Errorf("embed uri mismatch (-want +got):\n%s", diff)
	}
}

func TestBlueskyPostBadCredentials(t *testing.T) {
	transport := &routeTransport{routes: map[string]cannedResponse{
		"/xrpc/com.atproto.server.createSession": {
			statusCode: 401,
			body:       `{"error":"AuthenticationRequired"}`,
		},
	}}
	client, _ := NewClientWithHTTP(blueskyConfig(), transport)

	_, err := client.Post(context.Background(), Post{Title: "t", URL: "https://b.example/x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if diff := cmp.Diff(401, apiErr.StatusCode); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestBlueskyFetchComments(t *testing.T) {
	header := http.Header{}
	header.Set("RateLimit-Remaining", "2999")
	header.Set("RateLimit-Limit", "3000")
	header.Set("RateLimit-Reset", "1788264000")

	transport := &routeTransport{routes: map[string]cannedResponse{
		"/xrpc/com.atproto.identity.resolveHandle": {
			statusCode: 200,
			body:       `{"did":"did:plc:abc"}`,
		},
		"/xrpc/app.bsky.feed.getPostThread": {
			statusCode: 200,
			header:     header,
			body: `{
				"thread": {
					"post": {"uri": "at://did:plc:abc/app.bsky.feed.post/3kxyz"},
					"replies": [
						{
							"post": {
								"uri": "at://did:plc:reader/app.bsky.feed.post/3reply",
								"author": {
									"displayName": "Test Reader",
									"handle": "reader.bsky.social",
									"avatar": "https://cdn.bsky.app/img/reader.jpg"
								},
								"record": {
									"text": "Great article!",
									"createdAt": "2026-08-30T09:30:00Z"
								}
							}
						}
					]
				}
			}`,
		},
	}}
	client, _ := NewClientWithHTTP(blueskyConfig(), transport)

	got, err := client.FetchComments(context.Background(), "https://bsky.app/profile/author.bsky.social/post/3kxyz")
	if err != nil {
		t.Fatalf("fetch comments: %v", err)
	}

	published := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	want := &FetchResult{
		Comments: []RawComment{
			{
				ExternalID:      "at://did:plc:reader/app.bsky.feed.post/3reply",
				AuthorName:      "Test Reader",
				AuthorUsername:  "@reader.bsky.social",
				AuthorAvatarURL: "https://cdn.bsky.app/img/reader.jpg",
				Content:         "Great article!",
				URL:             "https://bsky.app/profile/reader.bsky.social/post/3reply",
				PublishedAt:     &published,
			},
		},
		RateLimit: &model.RateLimit{
			Remaining: 2999,
			Limit:     3000,
			ResetAt:   time.Unix(1788264000, 0).UTC(),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchComments() mismatch (-want +got):\n%s", diff)
	}
}

func TestBlueskyFetchCommentsRejectsForeignURL(t *testing.T) {
	client, _ := NewClientWithHTTP(blueskyConfig(), &routeTransport{})
	_, err := client.FetchComments(context.Background(), "https://bsky.app/notaprofile/x")
	if err == nil {
		t.Fatal("expected error for malformed post URL")
	}
}
