package database

import (
	"fmt"
	"time"
)

var _ RenderRepository = (*RenderRepositoryImpl)(nil)

type RenderRepositoryImpl struct {
	db *DB
}

func NewRenderRepository(db *DB) *RenderRepositoryImpl {
	return &RenderRepositoryImpl{db: db}
}

func (r *RenderRepositoryImpl) CreateRender(render Render) error {
	createdAt := render.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO renders (feed_name, status, item_count, kind, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, render.FeedName, render.Status, render.ItemCount, render.Kind, render.Error,
		render.Duration.Milliseconds(), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store render: %w", err)
	}

	return nil
}

// GetRecentRenders returns the latest renders of a feed, newest first.
func (r *RenderRepositoryImpl) GetRecentRenders(feedName string, limit int) ([]Render, error) {
	rows, err := r.db.Query(`
		SELECT id, feed_name, status, item_count, kind, error, duration_ms, created_at
		FROM renders
		WHERE feed_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent renders: %w", err)
	}
	defer rows.Close()

	var renders []Render
	for rows.Next() {
		var render Render
		var durationMs, createdAt int64
		err := rows.Scan(&render.ID, &render.FeedName, &render.Status, &render.ItemCount,
			&render.Kind, &render.Error, &durationMs, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		render.Duration = time.Duration(durationMs) * time.Millisecond
		render.CreatedAt = time.Unix(createdAt, 0).UTC()
		renders = append(renders, render)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating render rows: %w", err)
	}

	return renders, nil
}
