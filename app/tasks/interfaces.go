package tasks

import (
	"context"
	"time"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background rendering.
// Example usage:
//
//	scheduler := NewScheduler(configCache, feedRepo, renderRepo, fetcher, sink)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueRender("news")
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRender(feedName string) error
}

type FeedFetcher interface {
	Run(ctx context.Context, location string, timeout time.Duration) ([]byte, error)
}

type PageSink interface {
	Write(name, text string) error
}
