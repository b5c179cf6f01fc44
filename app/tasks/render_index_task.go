package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
	"github.com/lysyi3m/rss-page/app/page"
)

type RenderIndexTask struct {
	Task
	title       string
	configCache *feed.ConfigCache
	feedRepo    database.FeedRepository
	sink        PageSink
}

func NewRenderIndexTask(title string, configCache *feed.ConfigCache, feedRepo database.FeedRepository, sink PageSink) *RenderIndexTask {
	return &RenderIndexTask{
		Task:        NewTask(TaskTypeRenderIndex, ""),
		title:       title,
		configCache: configCache,
		feedRepo:    feedRepo,
		sink:        sink,
	}
}

func (t *RenderIndexTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	feeds, err := t.feedRepo.GetFeeds()
	if err != nil {
		return fmt.Errorf("failed to get feeds: %w", err)
	}

	entries := IndexEntries(t.configCache.GetEnabledConfigs(), feeds)

	if err := t.sink.Write(feed.IndexFile, page.RenderIndex(t.title, entries)); err != nil {
		return fmt.Errorf("failed to write index page: %w", err)
	}

	slog.Info("Task completed",
		"type", "RenderIndex",
		"duration", t.GetDuration(),
		"feeds", len(entries))

	return nil
}

// IndexEntries lists the enabled feeds that have a page on disk, ordered by
// title and then name.
func IndexEntries(configs map[string]*feed.Config, feeds []database.Feed) []page.IndexEntry {
	type named struct {
		name  string
		entry page.IndexEntry
	}

	var list []named
	for _, f := range feeds {
		config, ok := configs[f.Name]
		if !ok || f.LastRenderedAt == nil {
			continue
		}
		list = append(list, named{
			name: f.Name,
			entry: page.IndexEntry{
				Title:      config.Title,
				File:       config.File,
				Items:      f.LastItemCount,
				RenderedAt: f.LastRenderedAt,
			},
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].entry.Title != list[j].entry.Title {
			return list[i].entry.Title < list[j].entry.Title
		}
		return list[i].name < list[j].name
	})

	entries := make([]page.IndexEntry, len(list))
	for i, n := range list {
		entries[i] = n.entry
	}
	return entries
}
