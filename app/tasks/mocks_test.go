package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
)

type mockFeedRepository struct {
	mu     sync.Mutex
	feeds  map[string]*database.Feed
	states map[string]database.RenderState
	err    error
}

func newMockFeedRepository() *mockFeedRepository {
	return &mockFeedRepository{
		feeds:  make(map[string]*database.Feed),
		states: make(map[string]database.RenderState),
	}
}

func (m *mockFeedRepository) GetFeed(feedName string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.feeds[feedName], nil
}

func (m *mockFeedRepository) GetFeeds() ([]database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var feeds []database.Feed
	for _, f := range m.feeds {
		feeds = append(feeds, *f)
	}
	return feeds, nil
}

func (m *mockFeedRepository) GetFeedCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds), nil
}

func (m *mockFeedRepository) UpsertFeed(feedName, feedURL, title, file string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.feeds[feedName] = &database.Feed{Name: feedName, URL: feedURL, Title: title, File: file}
	return nil
}

func (m *mockFeedRepository) UpdateRenderState(feedName string, state database.RenderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.states[feedName] = state
	return nil
}

type mockRenderRepository struct {
	mu      sync.Mutex
	renders []database.Render
}

func (m *mockRenderRepository) CreateRender(render database.Render) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders = append(m.renders, render)
	return nil
}

func (m *mockRenderRepository) GetRecentRenders(feedName string, limit int) ([]database.Render, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Render
	for i := len(m.renders) - 1; i >= 0 && len(out) < limit; i-- {
		if m.renders[i].FeedName == feedName {
			out = append(out, m.renders[i])
		}
	}
	return out, nil
}

type mockFetcher struct {
	data  []byte
	err   error
	calls int
}

func (m *mockFetcher) Run(ctx context.Context, location string, timeout time.Duration) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type mockSink struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
}

func newMockSink() *mockSink {
	return &mockSink{pages: make(map[string]string)}
}

func (m *mockSink) Write(name, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.pages[name] = text
	return nil
}

var errMock = errors.New("mock error")

// newTestConfigCache loads the given YAML documents keyed by feed name.
func newTestConfigCache(t *testing.T, configs map[string]string) *feed.ConfigCache {
	t.Helper()

	dir := t.TempDir()
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cache := feed.NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}
	return cache
}
