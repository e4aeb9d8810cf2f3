// Package model defines the domain types used across the application.
package model

import "time"

// ArticleStatus describes where an article is in its publishing lifecycle.
type ArticleStatus string

// Supported article statuses.
const (
	StatusDraft     ArticleStatus = "draft"
	StatusScheduled ArticleStatus = "scheduled"
	StatusPublished ArticleStatus = "published"
)

// Article is a piece of published content to be syndicated.
type Article struct {
	ID          int64
	Title       string
	Slug        string
	Status      ArticleStatus
	HTMLContent string
	SourceURL   string
	ScheduledAt *time.Time
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// SocialPost records a successful publish of one article to one platform.
// At most one row exists per (article, platform) pair.
type SocialPost struct {
	ID        int64
	ArticleID int64
	Platform  Platform
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a remote comment mirrored locally, keyed by
// (article, platform, external id).
type Comment struct {
	ID              int64
	ArticleID       int64
	Platform        Platform
	ExternalID      string
	AuthorName      string
	AuthorUsername  string
	AuthorAvatarURL string
	Content         string
	URL             string
	PublishedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RateLimit is a platform's self-reported remaining-call budget,
// returned alongside an API response. Transient, never persisted.
type RateLimit struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Action identifies what an activity log entry records.
type Action string

// Supported activity actions.
const (
	ActionStarted   Action = "started"
	ActionPosted    Action = "posted"
	ActionCompleted Action = "completed"
	ActionFailed    Action = "failed"
	ActionPaused    Action = "paused"
)

// Target identifies which subsystem an activity log entry belongs to.
type Target string

// Supported activity targets.
const (
	TargetCrosspost     Target = "crosspost"
	TargetFetchComments Target = "fetch_comments"
)

// Level is the severity of an activity log entry.
type Level string

// Supported severity levels.
const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ActivityLog is one append-only log entry.
type ActivityLog struct {
	ID          int64
	Action      Action
	Target      Target
	Level       Level
	Description string
	CreatedAt   time.Time
}
