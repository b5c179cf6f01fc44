package api

import (
	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
	"github.com/lysyi3m/rss-page/app/sink"
	"github.com/lysyi3m/rss-page/app/tasks"
)

// PageStore reads generated pages back for serving.
type PageStore interface {
	Read(name string) ([]byte, error)
}

var _ PageStore = (*sink.FileSink)(nil)

type Handler struct {
	feedRepo    database.FeedRepository
	renderRepo  database.RenderRepository
	configCache *feed.ConfigCache
	pages       PageStore
	scheduler   tasks.TaskSchedulerInterface
}
