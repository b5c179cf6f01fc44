package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
	"github.com/lysyi3m/rss-page/app/page"
	"github.com/lysyi3m/rss-page/app/xmltree"
)

type RenderFeedTask struct {
	Task
	FeedConfig *feed.Config
	fetcher    FeedFetcher
	parser     *xmltree.Parser
	sink       PageSink
	feedRepo   database.FeedRepository
	renderRepo database.RenderRepository
	onRendered func()
}

func NewRenderFeedTask(feedName string, feedConfig *feed.Config, fetcher FeedFetcher, sink PageSink,
	feedRepo database.FeedRepository, renderRepo database.RenderRepository, onRendered func()) *RenderFeedTask {
	return &RenderFeedTask{
		Task:       NewTask(TaskTypeRenderFeed, feedName),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		parser:     xmltree.NewParser(),
		sink:       sink,
		feedRepo:   feedRepo,
		renderRepo: renderRepo,
		onRendered: onRendered,
	}
}

func (t *RenderFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	data, err := t.fetcher.Run(ctx, t.FeedConfig.URL, t.FeedConfig.Settings.GetTimeout())
	if err != nil {
		return t.fail("", fmt.Errorf("failed to fetch feed: %w", err))
	}

	kind := feed.DetectKind(data)

	root, err := t.parser.Run(data)
	if err != nil {
		return t.fail(kind, fmt.Errorf("failed to parse feed: %w", err))
	}

	renderer := page.NewRenderer(page.WithLinklessHeadline(page.LinklessHeadline(t.FeedConfig.Settings.LinklessHeadline)))
	result, err := renderer.Run(root)
	if err != nil {
		return t.fail(kind, fmt.Errorf("failed to render feed: %w", err))
	}

	if result.Status == page.StatusNoOutput {
		slog.Warn("Feed produced no output", "feed", t.FeedName, "kind", kind, "reason", result.Reason)
		return t.record(kind, database.RenderState{
			Status: database.StatusNoOutput,
			Error:  result.Reason,
		})
	}

	if err := t.sink.Write(t.FeedConfig.File, result.HTML); err != nil {
		return t.fail(kind, fmt.Errorf("failed to write page: %w", err))
	}

	now := time.Now().UTC()
	err = t.record(kind, database.RenderState{
		Status:     database.StatusRendered,
		ItemCount:  result.Items,
		RenderedAt: &now,
	})
	if err != nil {
		return err
	}

	if t.onRendered != nil {
		t.onRendered()
	}

	slog.Info("Task completed",
		"type", "RenderFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"title", result.Title,
		"items", result.Items,
		"file", t.FeedConfig.File)

	return nil
}

func (t *RenderFeedTask) fail(kind string, err error) error {
	if recordErr := t.record(kind, database.RenderState{
		Status: database.StatusFailed,
		Error:  err.Error(),
	}); recordErr != nil {
		slog.Warn("Failed to record render failure", "feed", t.FeedName, "error", recordErr)
	}
	return err
}

// record stores the outcome of this run and schedules the next one.
func (t *RenderFeedTask) record(kind string, state database.RenderState) error {
	state.NextRender = time.Now().UTC().Add(t.FeedConfig.Settings.GetRefreshInterval())

	err := t.renderRepo.CreateRender(database.Render{
		FeedName:  t.FeedName,
		Status:    state.Status,
		ItemCount: state.ItemCount,
		Kind:      kind,
		Error:     state.Error,
		Duration:  t.GetDuration(),
	})
	if err != nil {
		return fmt.Errorf("failed to store render: %w", err)
	}

	if err := t.feedRepo.UpdateRenderState(t.FeedName, state); err != nil {
		return fmt.Errorf("failed to update render state: %w", err)
	}

	return nil
}
