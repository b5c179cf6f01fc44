package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-page/app/cfg"
	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	feedRepo    database.FeedRepository
	renderRepo  database.RenderRepository
	configCache *feed.ConfigCache
	fetcher     FeedFetcher
	sink        PageSink
	indexTitle  string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
	// indexStale is set when a page was written since the last index render.
	indexStale atomic.Bool
}

func NewScheduler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	renderRepo database.RenderRepository, fetcher FeedFetcher, sink PageSink) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		feedRepo:    feedRepo,
		renderRepo:  renderRepo,
		configCache: configCache,
		fetcher:     fetcher,
		sink:        sink,
		indexTitle:  cfg.IndexTitle,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueRender queues an immediate render of a configured feed, ignoring
// its schedule.
func (s *Scheduler) EnqueueRender(feedName string) error {
	feedConfig, err := s.configCache.GetConfig(feedName)
	if err != nil {
		return err
	}
	if !feedConfig.Settings.Enabled {
		return fmt.Errorf("feed %s is disabled", feedName)
	}
	return s.EnqueueTask(s.newRenderFeedTask(feedConfig))
}

func (s *Scheduler) newRenderFeedTask(feedConfig *feed.Config) *RenderFeedTask {
	return NewRenderFeedTask(feedConfig.Name, feedConfig, s.fetcher, s.sink, s.feedRepo, s.renderRepo, s.markIndexStale)
}

func (s *Scheduler) markIndexStale() {
	s.indexStale.Store(true)
}

func (s *Scheduler) enqueueStartupTasks() {
	// the index is written once at startup so the site root always exists
	s.markIndexStale()

	feedConfigs := s.configCache.GetConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No feed configurations found")
		s.enqueueIndexIfStale()
		return
	}

	slog.Debug("Processing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		syncTask := NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.feedRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncFeedConfigTask", "feed", feedConfig.Name, "error", err)
			continue
		}

		if !feedConfig.Settings.Enabled {
			slog.Debug("Feed disabled, skipping RenderFeedTask", "feed", feedConfig.Name)
			continue
		}

		if err := s.EnqueueTask(s.newRenderFeedTask(feedConfig)); err != nil {
			slog.Warn("Failed to enqueue RenderFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}

	s.enqueueIndexIfStale()
}

func (s *Scheduler) enqueueTasks() {
	s.enqueueIndexIfStale()

	feedConfigs := s.configCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	slog.Debug("Processing enabled feed configurations for task scheduling", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		feed, err := s.feedRepo.GetFeed(feedConfig.Name)
		if err != nil {
			slog.Warn("Failed to get feed from database, skipping", "feed", feedConfig.Name, "error", err)
			continue
		}
		if feed == nil {
			slog.Warn("Feed not found in database, skipping", "feed", feedConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if feed.NextRenderAt != nil && feed.NextRenderAt.After(now) {
			slog.Debug("Feed not due for render yet", "feed", feedConfig.Name, "next_render_at", feed.NextRenderAt)
			continue
		}

		if err := s.EnqueueTask(s.newRenderFeedTask(feedConfig)); err != nil {
			slog.Warn("Failed to enqueue RenderFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueIndexIfStale() {
	if !s.indexStale.CompareAndSwap(true, false) {
		return
	}

	indexTask := NewRenderIndexTask(s.indexTitle, s.configCache, s.feedRepo, s.sink)
	if err := s.EnqueueTask(indexTask); err != nil {
		s.markIndexStale()
		slog.Warn("Failed to enqueue RenderIndexTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !isRetryable(err) {
		slog.Warn("Task failure is permanent, not retrying", "type", string(task.GetType()), "feed", task.GetFeedName(), "error", err)
		return
	}

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "feed", task.GetFeedName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from one second per attempt, capped at 30 seconds.
func retryDelay(retryCount int) time.Duration {
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}
