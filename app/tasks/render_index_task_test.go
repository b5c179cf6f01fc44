package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
	"github.com/lysyi3m/rss-page/app/page"
)

func TestIndexEntries(t *testing.T) {
	rendered := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	configs := map[string]*feed.Config{
		"b":     {Name: "b", Title: "Same", File: "b.html"},
		"a":     {Name: "a", Title: "Same", File: "a.html"},
		"alpha": {Name: "alpha", Title: "Alpha", File: "alpha.html"},
		"fresh": {Name: "fresh", Title: "Fresh", File: "fresh.html"},
	}
	feeds := []database.Feed{
		{Name: "b", LastItemCount: 2, LastRenderedAt: &rendered},
		{Name: "a", LastItemCount: 1, LastRenderedAt: &rendered},
		{Name: "alpha", LastItemCount: 5, LastRenderedAt: &rendered},
		{Name: "fresh"},
		{Name: "removed", LastRenderedAt: &rendered},
	}

	got := IndexEntries(configs, feeds)
	want := []page.IndexEntry{
		{Title: "Alpha", File: "alpha.html", Items: 5, RenderedAt: &rendered},
		{Title: "Same", File: "a.html", Items: 1, RenderedAt: &rendered},
		{Title: "Same", File: "b.html", Items: 2, RenderedAt: &rendered},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IndexEntries mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderIndexTask(t *testing.T) {
	cache := newTestConfigCache(t, map[string]string{
		"news": "url: https://example.com/rss\ntitle: World News\nsettings:\n  enabled: true\n",
	})

	rendered := time.Now().UTC()
	repo := newMockFeedRepository()
	repo.feeds["news"] = &database.Feed{Name: "news", LastItemCount: 3, LastRenderedAt: &rendered}
	sink := newMockSink()

	task := NewRenderIndexTask("Headlines", cache, repo, sink)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	html, ok := sink.pages[feed.IndexFile]
	if !ok {
		t.Fatal("Expected index page to be written")
	}
	if !strings.Contains(html, "<title>Headlines</title>") {
		t.Errorf("Expected index title, got:\n%s", html)
	}
	if !strings.Contains(html, `<a href="news.html">World News</a>`) {
		t.Errorf("Expected link to feed page, got:\n%s", html)
	}
}

func TestRenderIndexTaskRepositoryError(t *testing.T) {
	cache := newTestConfigCache(t, nil)
	repo := newMockFeedRepository()
	repo.err = errMock
	sink := newMockSink()

	task := NewRenderIndexTask("News", cache, repo, sink)
	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected error when feeds cannot be read")
	}
	if len(sink.pages) != 0 {
		t.Error("Expected nothing written")
	}
}
