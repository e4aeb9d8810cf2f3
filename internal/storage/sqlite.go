package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"syndicator/internal/model"
	"syndicator/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateArticle inserts a new article and populates its ID and CreatedAt.
func (s *SQLite) CreateArticle(ctx context.Context, a *model.Article) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (title, slug, status, html_content, source_url, scheduled_at, published_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Slug, string(a.Status), a.HTMLContent, a.SourceURL,
		formatNullableTime(a.ScheduledAt), formatNullableTime(a.PublishedAt), now,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetArticle returns a single article by its ID.
// Returns ErrNotFound when no such article exists.
func (s *SQLite) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, slug, status, html_content, source_url, scheduled_at, published_at, created_at
		 FROM articles WHERE id = ?`, id,
	)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListDueScheduled returns scheduled articles whose publish time has passed.
func (s *SQLite) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, slug, status, html_content, source_url, scheduled_at, published_at, created_at
		 FROM articles
		 WHERE status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		 ORDER BY id`,
		string(model.StatusScheduled), now.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query due scheduled: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// PublishArticle transitions an article to published, clearing its schedule.
func (s *SQLite) PublishArticle(ctx context.Context, id int64, publishedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET status = ?, scheduled_at = NULL, published_at = ? WHERE id = ?`,
		string(model.StatusPublished), publishedAt.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("publish article: %w", err)
	}
	return nil
}

// GetPlatformConfig returns the configuration record for one platform.
// Returns ErrNotFound when the platform has never been configured.
func (s *SQLite) GetPlatformConfig(ctx context.Context, p model.Platform) (*model.PlatformConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT platform, enabled, server_url, client_key, client_secret, access_token,
		        access_token_secret, api_key, api_key_secret, username, app_password,
		        max_characters, auto_fetch_comments, updated_at
		 FROM platform_configs WHERE platform = ?`, string(p),
	)
	cfg, err := scanPlatformConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return cfg, err
}

// SavePlatformConfig validates and upserts a platform configuration.
// Invalid configs are rejected here so dispatch never sees one.
func (s *SQLite) SavePlatformConfig(ctx context.Context, cfg *model.PlatformConfig) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return fmt.Errorf("invalid config for %s: %w", cfg.Platform, errors.Join(joined...))
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO platform_configs (platform, enabled, server_url, client_key, client_secret,
		        access_token, access_token_secret, api_key, api_key_secret, username, app_password,
		        max_characters, auto_fetch_comments, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (platform) DO UPDATE SET
		        enabled = excluded.enabled,
		        server_url = excluded.server_url,
		        client_key = excluded.client_key,
		        client_secret = excluded.client_secret,
		        access_token = excluded.access_token,
		        access_token_secret = excluded.access_token_secret,
		        api_key = excluded.api_key,
		        api_key_secret = excluded.api_key_secret,
		        username = excluded.username,
		        app_password = excluded.app_password,
		        max_characters = excluded.max_characters,
		        auto_fetch_comments = excluded.auto_fetch_comments,
		        updated_at = excluded.updated_at`,
		string(cfg.Platform), boolToInt(cfg.Enabled), cfg.ServerURL, cfg.ClientKey, cfg.ClientSecret,
		cfg.AccessToken, cfg.AccessTokenSecret, cfg.APIKey, cfg.APIKeySecret, cfg.Username,
		cfg.AppPassword, cfg.MaxCharacters, boolToInt(cfg.AutoFetchComments), now,
	)
	if err != nil {
		return fmt.Errorf("save platform config: %w", err)
	}
	cfg.UpdatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListPlatformConfigs returns all configured platforms in declared order.
func (s *SQLite) ListPlatformConfigs(ctx context.Context) ([]model.PlatformConfig, error) {
	var configs []model.PlatformConfig
	for _, p := range model.Platforms {
		cfg, err := s.GetPlatformConfig(ctx, p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, nil
}

// UpsertSocialPost records the external URL for an (article, platform) pair.
// A repeated publish overwrites the URL of the existing row; the conflict
// target keeps concurrent dispatches of the same pair on a single row.
func (s *SQLite) UpsertSocialPost(ctx context.Context, articleID int64, p model.Platform, url string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO social_posts (article_id, platform, url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (article_id, platform) DO UPDATE SET
		        url = excluded.url,
		        updated_at = excluded.updated_at`,
		articleID, string(p), url, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert social post: %w", err)
	}
	return nil
}

// GetSocialPost returns the post record for an (article, platform) pair.
func (s *SQLite) GetSocialPost(ctx context.Context, articleID int64, p model.Platform) (*model.SocialPost, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, article_id, platform, url, created_at, updated_at
		 FROM social_posts WHERE article_id = ? AND platform = ?`,
		articleID, string(p),
	)
	sp, err := scanSocialPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sp, err
}

// ListSocialPosts returns every post on a platform in ascending article order.
func (s *SQLite) ListSocialPosts(ctx context.Context, p model.Platform) ([]model.SocialPost, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, article_id, platform, url, created_at, updated_at
		 FROM social_posts WHERE platform = ? ORDER BY article_id`,
		string(p),
	)
	if err != nil {
		return nil, fmt.Errorf("query social posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.SocialPost
	for rows.Next() {
		sp, err := scanSocialPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *sp)
	}
	return posts, rows.Err()
}

// ListUnpostedArticleIDs returns published articles without a post on the
// given platform, oldest first. The dispatch sweep drains this list.
func (s *SQLite) ListUnpostedArticleIDs(ctx context.Context, p model.Platform) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id FROM articles a
		 LEFT JOIN social_posts sp ON sp.article_id = a.id AND sp.platform = ?
		 WHERE a.status = ? AND sp.id IS NULL
		 ORDER BY a.id`,
		string(p), string(model.StatusPublished),
	)
	if err != nil {
		return nil, fmt.Errorf("query unposted articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan article id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertComment inserts a remote comment or refreshes its mutable fields.
// External id and platform never change once a row exists.
func (s *SQLite) UpsertComment(ctx context.Context, c *model.Comment) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (article_id, platform, external_id, author_name, author_username,
		        author_avatar_url, content, url, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (article_id, platform, external_id) DO UPDATE SET
		        author_name = excluded.author_name,
		        author_username = excluded.author_username,
		        author_avatar_url = excluded.author_avatar_url,
		        content = excluded.content,
		        url = excluded.url,
		        published_at = excluded.published_at,
		        updated_at = excluded.updated_at`,
		c.ArticleID, string(c.Platform), c.ExternalID, c.AuthorName, c.AuthorUsername,
		c.AuthorAvatarURL, c.Content, c.URL, formatNullableTime(c.PublishedAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert comment: %w", err)
	}
	return nil
}

// ListComments returns all mirrored comments for an article.
func (s *SQLite) ListComments(ctx context.Context, articleID int64) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, article_id, platform, external_id, author_name, author_username,
		        author_avatar_url, content, url, published_at, created_at, updated_at
		 FROM comments WHERE article_id = ? ORDER BY id`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// InsertActivityLog appends one entry to the activity log.
func (s *SQLite) InsertActivityLog(ctx context.Context, entry *model.ActivityLog) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (action, target, level, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(entry.Action), string(entry.Target), string(entry.Level), entry.Description, now,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListActivityLogs returns all entries in insertion order.
func (s *SQLite) ListActivityLogs(ctx context.Context) ([]model.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, target, level, description, created_at FROM activity_logs ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		var action, target, level, created string
		if err := rows.Scan(&e.ID, &action, &target, &level, &e.Description, &created); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		e.Action = model.Action(action)
		e.Target = model.Target(target)
		e.Level = model.Level(level)
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatNullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArticle(row scannable) (*model.Article, error) {
	var a model.Article
	var status string
	var scheduled, published, created sql.NullString
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &status, &a.HTMLContent, &a.SourceURL,
		&scheduled, &published, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.Status = model.ArticleStatus(status)
	a.ScheduledAt = parseNullableTime(scheduled)
	a.PublishedAt = parseNullableTime(published)
	if created.Valid {
		a.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &a, nil
}

func scanPlatformConfig(row scannable) (*model.PlatformConfig, error) {
	var cfg model.PlatformConfig
	var platform, updated string
	var enabled, autoFetch int
	var maxChars sql.NullInt64
	err := row.Scan(&platform, &enabled, &cfg.ServerURL, &cfg.ClientKey, &cfg.ClientSecret,
		&cfg.AccessToken, &cfg.AccessTokenSecret, &cfg.APIKey, &cfg.APIKeySecret,
		&cfg.Username, &cfg.AppPassword, &maxChars, &autoFetch, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan platform config: %w", err)
	}
	cfg.Platform = model.Platform(platform)
	cfg.Enabled = enabled == 1
	cfg.AutoFetchComments = autoFetch == 1
	if maxChars.Valid {
		v := int(maxChars.Int64)
		cfg.MaxCharacters = &v
	}
	cfg.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &cfg, nil
}

func scanSocialPost(row scannable) (*model.SocialPost, error) {
	var sp model.SocialPost
	var platform, created, updated string
	err := row.Scan(&sp.ID, &sp.ArticleID, &platform, &sp.URL, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan social post: %w", err)
	}
	sp.Platform = model.Platform(platform)
	sp.CreatedAt, _ = time.Parse(timeLayout, created)
	sp.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &sp, nil
}

func scanComment(row scannable) (*model.Comment, error) {
	var c model.Comment
	var platform, created, updated string
	var published sql.NullString
	err := row.Scan(&c.ID, &c.ArticleID, &platform, &c.ExternalID, &c.AuthorName,
		&c.AuthorUsername, &c.AuthorAvatarURL, &c.Content, &c.URL, &published,
		&created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	c.Platform = model.Platform(platform)
	c.PublishedAt = parseNullableTime(published)
	c.CreatedAt, _ = time.Parse(timeLayout, created)
	c.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &c, nil
}
