package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypePollFeed TaskType = "poll_feed"
)

const (
	DefaultMaxRetries = 3
	taskTimeout       = 5 * time.Minute
	maxRetryDelay     = 30 * time.Second
)

// Runnable is a unit of scheduled work. Meta exposes the bookkeeping the
// scheduler keeps across attempts.
type Runnable interface {
	Execute(ctx context.Context) error
	Meta() *Task
}

// Task carries the identity and attempt history of a Runnable.
type Task struct {
	ID         string
	Type       TaskType
	FeedName   string
	Retries    int
	MaxRetries int
	StartedAt  time.Time
}

func NewTask(taskType TaskType, feedName string) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		FeedName:   feedName,
		MaxRetries: DefaultMaxRetries,
	}
}

func (t *Task) Meta() *Task {
	return t
}

// begin records the start of an attempt.
func (t *Task) begin() {
	t.StartedAt = time.Now()
}

// retry consumes one retry and returns the backoff before the next attempt,
// or false once retries are exhausted.
func (t *Task) retry(backoff func(int) time.Duration) (time.Duration, bool) {
	if t.Retries >= t.MaxRetries {
		return 0, false
	}
	t.Retries++
	return backoff(t.Retries), true
}

// attrs returns the task's log fields followed by extra.
func (t *Task) attrs(extra ...any) []any {
	return append([]any{"type", string(t.Type), "feed", t.FeedName, "id", t.ID, "retry_count", t.Retries}, extra...)
}

// retryDelay is the backoff before attempt n+1: 1s, 2s, 4s... capped.
func retryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > 6 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	return min(delay, maxRetryDelay)
}
