package platform

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"syndicator/internal/model"
)

const twitterAPIBase = "https://api.twitter.com"

// TwitterClient posts tweets and searches reply threads through the
// Twitter v2 API, signing requests with OAuth 1.0a user context.
type TwitterClient struct {
	cfg  model.PlatformConfig
	http HTTPClient
}

var _ Client = (*TwitterClient)(nil)

// Platform implements Client.
func (c *TwitterClient) Platform() model.Platform { return model.Twitter }

// Post publishes a tweet and returns its URL.
func (c *TwitterClient) Post(ctx context.Context, post Post) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text": ComposeStatus(post, c.cfg.EffectiveMaxCharacters()),
	})
	if err != nil {
		return "", transportError(model.Twitter, err)
	}

	endpoint := c.baseURL() + "/2/tweets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", transportError(model.Twitter, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.oauthHeader(http.MethodPost, endpoint, nil))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(model.Twitter, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", apiError(model.Twitter, resp)
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := decodeJSON(resp, &created); err != nil {
		return "", transportError(model.Twitter, err)
	}
	if created.Data.ID == "" {
		return "", nil
	}
	return "https://twitter.com/i/web/status/" + created.Data.ID, nil
}

// FetchComments searches the tweet's conversation for replies.
func (c *TwitterClient) FetchComments(ctx context.Context, externalURL string) (*FetchResult, error) {
	tweetID := lastPathSegment(externalURL)
	query := url.Values{
		"query":        {"conversation_id:" + tweetID},
		"tweet.fields": {"author_id,created_at"},
		"expansions":   {"author_id"},
		"user.fields":  {"name,username,profile_image_url"},
	}

	endpoint := c.baseURL() + "/2/tweets/search/recent"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, transportError(model.Twitter, err)
	}
	req.Header.Set("Authorization", c.oauthHeader(http.MethodGet, endpoint, query))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(model.Twitter, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(model.Twitter, resp)
	}

	var body struct {
		Data []struct {
			ID        string    `json:"id"`
			Text      string    `json:"text"`
			AuthorID  string    `json:"author_id"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID              string `json:"id"`
				Name            string `json:"name"`
				Username        string `json:"username"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"users"`
		} `json:"includes"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, transportError(model.Twitter, err)
	}

	users := map[string]struct{ name, username, avatar string }{}
	for _, u := range body.Includes.Users {
		users[u.ID] = struct{ name, username, avatar string }{u.Name, u.Username, u.ProfileImageURL}
	}

	result := &FetchResult{
		RateLimit: rateLimitFromHeaders(resp.Header,
			"X-Rate-Limit-Remaining", "X-Rate-Limit-Limit", "X-Rate-Limit-Reset",
			parseUnixReset),
	}
	for _, tw := range body.Data {
		author := users[tw.AuthorID]
		published := tw.CreatedAt
		result.Comments = append(result.Comments, RawComment{
			ExternalID:      tw.ID,
			AuthorName:      author.name,
			AuthorUsername:  "@" + author.username,
			AuthorAvatarURL: author.avatar,
			Content:         tw.Text,
			URL:             fmt.Sprintf("https://twitter.com/%s/status/%s", author.username, tw.ID),
			PublishedAt:     &published,
		})
	}
	return result, nil
}

// oauthHeader builds an OAuth 1.0a Authorization header for a request.
// Query parameters take part in the signature; JSON bodies do not.
func (c *TwitterClient) oauthHeader(method, baseEndpoint string, query url.Values) string {
	oauth := map[string]string{
		"oauth_consumer_key":     c.cfg.APIKey,
		"oauth_nonce":            newNonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", time.Now().Unix()),
		"oauth_token":            c.cfg.AccessToken,
		"oauth_version":          "1.0",
	}

	params := map[string]string{}
	for k, v := range oauth {
		params[k] = v
	}
	for k, vs := range query {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, rfc3986Escape(k)+"="+rfc3986Escape(params[k]))
	}
	base := strings.Join([]string{
		method,
		rfc3986Escape(baseEndpoint),
		rfc3986Escape(strings.Join(pairs, "&")),
	}, "&")

	signingKey := rfc3986Escape(c.cfg.APIKeySecret) + "&" + rfc3986Escape(c.cfg.AccessTokenSecret)
	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	oauth["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headerKeys := make([]string, 0, len(oauth))
	for k := range oauth {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)

	var header []string
	for _, k := range headerKeys {
		header = append(header, fmt.Sprintf(`%s="%s"`, rfc3986Escape(k), rfc3986Escape(oauth[k])))
	}
	return "OAuth " + strings.Join(header, ", ")
}

// rfc3986Escape percent-encodes per RFC 3986, which OAuth signing
// requires; url.QueryEscape alone would encode spaces as '+'.
func rfc3986Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func newNonce() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (c *TwitterClient) baseURL() string {
	if s := strings.TrimRight(strings.TrimSpace(c.cfg.ServerURL), "/"); s != "" {
		return s
	}
	return twitterAPIBase
}
