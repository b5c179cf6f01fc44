package database

import (
	"time"
)

type RenderState struct {
	Status     string
	ItemCount  int
	Error      string
	RenderedAt *time.Time // nil keeps the previous value
	NextRender time.Time
}

type FeedRepository interface {
	GetFeed(feedName string) (*Feed, error)
	GetFeeds() ([]Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(feedName, feedURL, title, file string) error
	UpdateRenderState(feedName string, state RenderState) error
}

type RenderRepository interface {
	CreateRender(render Render) error
	GetRecentRenders(feedName string, limit int) ([]Render, error)
}
