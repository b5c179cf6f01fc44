package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lysyi3m/rss-page/app/database"
)

const enabledFeed = "url: https://example.com/rss\nsettings:\n  enabled: true\n"
const disabledFeed = "url: https://example.com/off\nsettings:\n  enabled: false\n"

func newTestScheduler(t *testing.T, configs map[string]string) (*Scheduler, *mockFeedRepository) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	repo := newMockFeedRepository()
	return &Scheduler{
		feedRepo:    repo,
		renderRepo:  &mockRenderRepository{},
		configCache: newTestConfigCache(t, configs),
		fetcher:     &mockFetcher{data: []byte(testRSS)},
		sink:        newMockSink(),
		indexTitle:  "News",
		interval:    time.Hour,
		workerCount: 1,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 10),
	}, repo
}

func drain(s *Scheduler) []TaskInterface {
	var tasks []TaskInterface
	for {
		select {
		case task := <-s.taskQueue:
			tasks = append(tasks, task)
		default:
			return tasks
		}
	}
}

func countTypes(tasks []TaskInterface) map[TaskType]int {
	counts := make(map[TaskType]int)
	for _, task := range tasks {
		counts[task.GetType()]++
	}
	return counts
}

func TestSchedulerEnqueueRender(t *testing.T) {
	s, _ := newTestScheduler(t, map[string]string{"news": enabledFeed, "off": disabledFeed})

	if err := s.EnqueueRender("missing"); err == nil {
		t.Error("Expected error for unknown feed")
	}
	if err := s.EnqueueRender("off"); err == nil {
		t.Error("Expected error for disabled feed")
	}
	if err := s.EnqueueRender("news"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	tasks := drain(s)
	if len(tasks) != 1 || tasks[0].GetType() != TaskTypeRenderFeed || tasks[0].GetFeedName() != "news" {
		t.Errorf("Expected one render task for news, got %v", tasks)
	}
}

func TestSchedulerEnqueueTaskQueueFull(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	s.taskQueue = make(chan TaskInterface, 1)

	if err := s.EnqueueTask(NewRenderIndexTask("News", s.configCache, s.feedRepo, s.sink)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.EnqueueTask(NewRenderIndexTask("News", s.configCache, s.feedRepo, s.sink)); err == nil {
		t.Error("Expected error when the queue is full")
	}
}

func TestSchedulerStartupTasks(t *testing.T) {
	s, _ := newTestScheduler(t, map[string]string{"news": enabledFeed, "off": disabledFeed})

	s.enqueueStartupTasks()

	counts := countTypes(drain(s))
	if counts[TaskTypeSyncFeedConfig] != 2 {
		t.Errorf("Expected 2 sync tasks, got %d", counts[TaskTypeSyncFeedConfig])
	}
	if counts[TaskTypeRenderFeed] != 1 {
		t.Errorf("Expected 1 render task, got %d", counts[TaskTypeRenderFeed])
	}
	if counts[TaskTypeRenderIndex] != 1 {
		t.Errorf("Expected 1 index task, got %d", counts[TaskTypeRenderIndex])
	}
}

func TestSchedulerEnqueueTasksRespectsSchedule(t *testing.T) {
	s, repo := newTestScheduler(t, map[string]string{"news": enabledFeed, "later": enabledFeed, "new": enabledFeed})

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	repo.feeds["news"] = &database.Feed{Name: "news", NextRenderAt: &past}
	repo.feeds["later"] = &database.Feed{Name: "later", NextRenderAt: &future}
	// "new" is not registered yet and is skipped until its sync task ran

	s.enqueueTasks()

	tasks := drain(s)
	if len(tasks) != 1 || tasks[0].GetFeedName() != "news" {
		t.Errorf("Expected only the due feed to be queued, got %v", tasks)
	}
}

func TestSchedulerIndexCoalescing(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	s.enqueueIndexIfStale()
	if len(drain(s)) != 0 {
		t.Error("Expected no index task while nothing changed")
	}

	s.markIndexStale()
	s.markIndexStale()
	s.enqueueIndexIfStale()
	s.enqueueIndexIfStale()

	counts := countTypes(drain(s))
	if counts[TaskTypeRenderIndex] != 1 {
		t.Errorf("Expected exactly one index task, got %d", counts[TaskTypeRenderIndex])
	}
}

type failingTask struct {
	Task
	err   error
	calls int
}

func (f *failingTask) Execute(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestSchedulerExecuteTaskRetries(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	task := &failingTask{Task: NewTask(TaskTypeRenderFeed, "news"), err: errMock}
	s.executeTask(0, task)

	if task.GetRetryCount() != 1 {
		t.Errorf("Expected retry count 1, got %d", task.GetRetryCount())
	}

	select {
	case queued := <-s.taskQueue:
		if queued != task {
			t.Error("Expected the failed task to be re-queued")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected task to be re-queued after the retry delay")
	}
}

func TestSchedulerExecuteTaskPermanentFailure(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	f := newRenderFixture("<rss><channel>")
	task := f.task(testFeedConfig())
	s.executeTask(0, task)

	if task.GetRetryCount() != 0 {
		t.Errorf("Expected no retry for a malformed document, got %d", task.GetRetryCount())
	}
}

func TestSchedulerExecuteTaskMaxRetries(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	task := &failingTask{Task: NewTask(TaskTypeRenderFeed, "news"), err: errMock}
	task.RetryCount = task.MaxRetries
	s.executeTask(0, task)

	if task.GetRetryCount() != task.MaxRetries {
		t.Errorf("Expected retry count to stay at %d, got %d", task.MaxRetries, task.GetRetryCount())
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("retry %d", tt.retry), func(t *testing.T) {
			if got := retryDelay(tt.retry); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s, _ := newTestScheduler(t, map[string]string{"news": enabledFeed})
	sink := s.sink.(*mockSink)

	s.Start()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		_, written := sink.pages["news.html"]
		sink.mu.Unlock()
		if written {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if _, ok := sink.pages["news.html"]; !ok {
		t.Error("Expected the feed page to be written by a worker")
	}
}

func TestTask(t *testing.T) {
	task := NewTask(TaskTypeSyncFeedConfig, "news")

	if task.ID == "" {
		t.Error("Expected task ID to be set")
	}
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
	if !task.CanRetry() {
		t.Error("Expected new task to be retryable")
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected task to stop retrying after max retries")
	}
}
