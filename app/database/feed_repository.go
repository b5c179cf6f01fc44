package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

type FeedRepositoryImpl struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

const feedColumns = `name, url, title, file, last_status, last_item_count, last_error,
	last_rendered_at, next_render_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	var lastRenderedAt, nextRenderAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&feed.Name, &feed.URL, &feed.Title, &feed.File, &feed.LastStatus, &feed.LastItemCount, &feed.LastError,
		&lastRenderedAt, &nextRenderAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	feed.LastRenderedAt = fromNullUnix(lastRenderedAt)
	feed.NextRenderAt = fromNullUnix(nextRenderAt)
	feed.CreatedAt = time.Unix(createdAt, 0).UTC()
	feed.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &feed, nil
}

// GetFeed returns nil, nil when the feed is not registered.
func (r *FeedRepositoryImpl) GetFeed(feedName string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE name = ?`, feedName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

func (r *FeedRepositoryImpl) GetFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY title, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepositoryImpl) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeed registers a feed or refreshes its configuration. A changed URL
// clears the schedule so the feed renders on the next tick.
func (r *FeedRepositoryImpl) UpsertFeed(feedName, feedURL, title, file string) error {
	now := time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO feeds (name, url, title, file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			next_render_at = CASE WHEN feeds.url = excluded.url THEN feeds.next_render_at ELSE NULL END,
			url = excluded.url,
			title = excluded.title,
			file = excluded.file,
			updated_at = excluded.updated_at
	`, feedName, feedURL, title, file, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

// UpdateRenderState stores the outcome of a run. The item count and render
// time describe the page on disk and only change when RenderedAt is set.
func (r *FeedRepositoryImpl) UpdateRenderState(feedName string, state RenderState) error {
	var itemCount sql.NullInt64
	if state.RenderedAt != nil {
		itemCount = sql.NullInt64{Int64: int64(state.ItemCount), Valid: true}
	}

	res, err := r.db.Exec(`
		UPDATE feeds
		SET last_status = ?, last_item_count = COALESCE(?, last_item_count), last_error = ?,
		    last_rendered_at = COALESCE(?, last_rendered_at),
		    next_render_at = ?, updated_at = ?
		WHERE name = ?
	`, state.Status, itemCount, state.Error, toNullUnix(state.RenderedAt),
		state.NextRender.Unix(), time.Now().Unix(), feedName)
	if err != nil {
		return fmt.Errorf("failed to update render state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update render state: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %s is not registered", feedName)
	}

	return nil
}

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
