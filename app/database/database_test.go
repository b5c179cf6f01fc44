package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("Expected clean migration version 2, got %d (dirty=%v)", version, dirty)
	}

	return db
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected no error on second run, got: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("Expected clean version 2, got %d (dirty=%v)", version, dirty)
	}
}

func TestFeedRepositoryUpsertAndGet(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	feed, err := repo.GetFeed("missing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed != nil {
		t.Error("Expected nil feed for missing name")
	}

	if err := repo.UpsertFeed("news", "https://example.com/rss", "News", "news.html"); err != nil {
		t.Fatalf("Failed to upsert feed: %v", err)
	}

	feed, err = repo.GetFeed("news")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed == nil {
		t.Fatal("Expected feed to exist")
	}
	if feed.URL != "https://example.com/rss" || feed.Title != "News" || feed.File != "news.html" {
		t.Errorf("Unexpected feed: %+v", feed)
	}
	if feed.LastRenderedAt != nil || feed.NextRenderAt != nil {
		t.Error("Expected new feed to have no render times")
	}

	count, err := repo.GetFeedCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 feed, got %d", count)
	}
}

func TestFeedRepositoryUpsertURLChangeResetsSchedule(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	if err := repo.UpsertFeed("news", "https://example.com/rss", "News", "news.html"); err != nil {
		t.Fatal(err)
	}
	next := time.Now().Add(time.Hour)
	if err := repo.UpdateRenderState("news", RenderState{Status: StatusRendered, NextRender: next}); err != nil {
		t.Fatal(err)
	}

	// same URL keeps the schedule
	if err := repo.UpsertFeed("news", "https://example.com/rss", "Renamed", "news.html"); err != nil {
		t.Fatal(err)
	}
	feed, _ := repo.GetFeed("news")
	if feed.NextRenderAt == nil {
		t.Fatal("Expected schedule to be kept")
	}
	if feed.Title != "Renamed" {
		t.Errorf("Expected title 'Renamed', got '%s'", feed.Title)
	}

	if err := repo.UpsertFeed("news", "https://example.com/other", "Renamed", "news.html"); err != nil {
		t.Fatal(err)
	}
	feed, _ = repo.GetFeed("news")
	if feed.NextRenderAt != nil {
		t.Error("Expected schedule to be reset after URL change")
	}
}

func TestFeedRepositoryUpdateRenderState(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	if err := repo.UpdateRenderState("missing", RenderState{Status: StatusRendered}); err == nil {
		t.Error("Expected error for unregistered feed")
	}

	if err := repo.UpsertFeed("news", "https://example.com/rss", "News", "news.html"); err != nil {
		t.Fatal(err)
	}

	renderedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	next := renderedAt.Add(time.Hour)
	err := repo.UpdateRenderState("news", RenderState{
		Status:     StatusRendered,
		ItemCount:  4,
		RenderedAt: &renderedAt,
		NextRender: next,
	})
	if err != nil {
		t.Fatal(err)
	}

	feed, _ := repo.GetFeed("news")
	if feed.LastStatus != StatusRendered || feed.LastItemCount != 4 {
		t.Errorf("Unexpected state: %+v", feed)
	}
	if feed.LastRenderedAt == nil || !feed.LastRenderedAt.Equal(renderedAt) {
		t.Errorf("Expected last rendered at %v, got %v", renderedAt, feed.LastRenderedAt)
	}
	if feed.NextRenderAt == nil || !feed.NextRenderAt.Equal(next) {
		t.Errorf("Expected next render at %v, got %v", next, feed.NextRenderAt)
	}

	// a run without output keeps the previous render time
	err = repo.UpdateRenderState("news", RenderState{
		Status:     StatusNoOutput,
		Error:      "root is not rss",
		NextRender: next.Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	feed, _ = repo.GetFeed("news")
	if feed.LastStatus != StatusNoOutput || feed.LastError != "root is not rss" {
		t.Errorf("Unexpected state: %+v", feed)
	}
	if feed.LastRenderedAt == nil || !feed.LastRenderedAt.Equal(renderedAt) {
		t.Errorf("Expected last rendered at to be kept, got %v", feed.LastRenderedAt)
	}
	if feed.LastItemCount != 4 {
		t.Errorf("Expected item count of the page on disk to be kept, got %d", feed.LastItemCount)
	}
}

func TestFeedRepositoryGetFeedsOrdered(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	for _, f := range [][3]string{{"b", "Zeta", "b.html"}, {"a", "Alpha", "a.html"}} {
		if err := repo.UpsertFeed(f[0], "https://example.com/"+f[0], f[1], f[2]); err != nil {
			t.Fatal(err)
		}
	}

	feeds, err := repo.GetFeeds()
	if err != nil {
		t.Fatal(err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(feeds))
	}
	if feeds[0].Title != "Alpha" || feeds[1].Title != "Zeta" {
		t.Errorf("Expected feeds ordered by title, got %s, %s", feeds[0].Title, feeds[1].Title)
	}
}

func TestRenderRepository(t *testing.T) {
	repo := NewRenderRepository(newTestDB(t))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []string{StatusRendered, StatusNoOutput, StatusFailed} {
		err := repo.CreateRender(Render{
			FeedName:  "news",
			Status:    status,
			ItemCount: i,
			Kind:      "rss",
			Duration:  1500 * time.Millisecond,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Failed to create render: %v", err)
		}
	}
	if err := repo.CreateRender(Render{FeedName: "other", Status: StatusRendered}); err != nil {
		t.Fatal(err)
	}

	renders, err := repo.GetRecentRenders("news", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(renders) != 2 {
		t.Fatalf("Expected 2 renders, got %d", len(renders))
	}
	if renders[0].Status != StatusFailed || renders[1].Status != StatusNoOutput {
		t.Errorf("Expected newest first, got %s, %s", renders[0].Status, renders[1].Status)
	}
	if renders[0].Duration != 1500*time.Millisecond {
		t.Errorf("Expected duration 1.5s, got %v", renders[0].Duration)
	}
	if !renders[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("Unexpected created at: %v", renders[0].CreatedAt)
	}
}
