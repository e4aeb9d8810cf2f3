package platform

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"syndicator/internal/model"
)

const maxResponseBytes = 2 * 1024 * 1024

// apiError turns a non-2xx response into an APIError, keeping the first
// line of the body for diagnostics.
func apiError(p model.Platform, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return &APIError{Platform: p, StatusCode: resp.StatusCode, Message: msg}
}

// transportError wraps a failed request in an APIError.
func transportError(p model.Platform, err error) *APIError {
	return &APIError{Platform: p, Message: err.Error()}
}

func decodeJSON(resp *http.Response, v any) error {
	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v)
}

// lastPathSegment returns the trailing segment of a URL path, which is the
// post identifier in every platform's public post URL.
func lastPathSegment(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// rateLimitFromHeaders reads a remaining/limit/reset header triple.
// parseReset handles the platform's reset representation; headers that are
// absent or malformed yield a nil snapshot.
func rateLimitFromHeaders(h http.Header, remainingKey, limitKey, resetKey string,
	parseReset func(string) (time.Time, error),
) *model.RateLimit {
	remainingRaw := h.Get(remainingKey)
	if remainingRaw == "" {
		return nil
	}
	remaining, err := strconv.Atoi(remainingRaw)
	if err != nil {
		return nil
	}
	limit, _ := strconv.Atoi(h.Get(limitKey))
	rl := &model.RateLimit{Remaining: remaining, Limit: limit}
	if raw := h.Get(resetKey); raw != "" {
		if t, err := parseReset(raw); err == nil {
			rl.ResetAt = t.UTC()
		}
	}
	return rl
}

func parseUnixReset(raw string) (time.Time, error) {
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse unix reset: %w", err)
	}
	return time.Unix(sec, 0), nil
}

func parseTimeReset(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}
