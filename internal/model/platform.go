package model

import (
	"net/url"
	"strings"
	"time"
)

// Platform identifies an external social platform.
type Platform string

// Supported platforms.
const (
	Mastodon    Platform = "mastodon"
	Twitter     Platform = "twitter"
	Bluesky     Platform = "bluesky"
	Xiaohongshu Platform = "xiaohongshu"
)

// Platforms lists every supported platform in processing order.
var Platforms = []Platform{Mastodon, Twitter, Bluesky, Xiaohongshu}

// defaultMaxCharacters holds the per-platform post length limits applied
// when a config does not override them.
var defaultMaxCharacters = map[Platform]int{
	Mastodon:    500,
	Twitter:     250,
	Bluesky:     300,
	Xiaohongshu: 300,
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	_, ok := defaultMaxCharacters[p]
	return ok
}

// PlatformConfig is the configuration record for one platform.
// Credential fields are platform-specific; unused ones stay blank.
type PlatformConfig struct {
	Platform          Platform
	Enabled           bool
	ServerURL         string
	ClientKey         string
	ClientSecret      string
	AccessToken       string
	AccessTokenSecret string
	APIKey            string
	APIKeySecret      string
	Username          string
	AppPassword       string
	MaxCharacters     *int
	AutoFetchComments bool
	UpdatedAt         time.Time
}

// DefaultMaxCharacters returns the platform's built-in post length limit.
func (c PlatformConfig) DefaultMaxCharacters() int {
	return defaultMaxCharacters[c.Platform]
}

// EffectiveMaxCharacters returns the configured override when set,
// otherwise the platform default.
func (c PlatformConfig) EffectiveMaxCharacters() int {
	if c.MaxCharacters != nil {
		return *c.MaxCharacters
	}
	return c.DefaultMaxCharacters()
}

// FieldError describes a single validation failure on a config field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// Validate checks the config value and returns one error per invalid field.
// Credential presence is only enforced while the platform is enabled, so a
// half-filled disabled config can be saved.
func (c PlatformConfig) Validate() []FieldError {
	var errs []FieldError

	switch {
	case c.Platform == "":
		errs = append(errs, FieldError{"platform", "can't be blank"})
	case !c.Platform.Valid():
		errs = append(errs, FieldError{"platform", "is not included in the list"})
	}

	if raw := strings.TrimSpace(c.ServerURL); raw != "" {
		u, err := url.Parse(raw)
		switch {
		case err != nil, !u.IsAbs(), u.Host == "":
			errs = append(errs, FieldError{"server_url", "must be a valid http(s) URL"})
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, FieldError{"server_url", "must be a valid http(s) URL"})
		case u.User != nil:
			errs = append(errs, FieldError{"server_url", "must not include credentials"})
		}
	}

	if c.Enabled {
		for _, req := range c.requiredCredentials() {
			if strings.TrimSpace(req.value) == "" {
				errs = append(errs, FieldError{req.field, "can't be blank"})
			}
		}
		if c.Platform == Mastodon && strings.TrimSpace(c.ServerURL) == "" {
			errs = append(errs, FieldError{"server_url", "can't be blank"})
		}
	}

	return errs
}

type credential struct {
	field string
	value string
}

// requiredCredentials returns the credential fields a platform needs before
// it can be enabled. Xiaohongshu posts through a local bridge and needs none.
func (c PlatformConfig) requiredCredentials() []credential {
	switch c.Platform {
	case Mastodon:
		return []credential{
			{"client_key", c.ClientKey},
			{"client_secret", c.ClientSecret},
			{"access_token", c.AccessToken},
		}
	case Twitter:
		return []credential{
			{"api_key", c.APIKey},
			{"api_key_secret", c.APIKeySecret},
			{"access_token", c.AccessToken},
			{"access_token_secret", c.AccessTokenSecret},
		}
	case Bluesky:
		return []credential{
			{"username", c.Username},
			{"app_password", c.AppPassword},
		}
	default:
		return nil
	}
}
