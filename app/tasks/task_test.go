package tasks

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypePollFeed, "ipt")

	if _, err := uuid.Parse(task.ID); err != nil {
		t.Errorf("Expected uuid task id, got %q", task.ID)
	}
	if task.FeedName != "ipt" {
		t.Errorf("Expected feed name 'ipt', got '%s'", task.FeedName)
	}
	if task.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected %d max retries, got %d", DefaultMaxRetries, task.MaxRetries)
	}
	if other := NewTask(TaskTypePollFeed, "ipt"); other.ID == task.ID {
		t.Error("Expected unique task ids")
	}
}

func TestTaskRetry(t *testing.T) {
	task := NewTask(TaskTypePollFeed, "ipt")

	var delays []time.Duration
	for {
		delay, ok := task.retry(retryDelay)
		if !ok {
			break
		}
		delays = append(delays, delay)
	}

	expected := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(delays) != len(expected) {
		t.Fatalf("Expected %d retries, got %d", len(expected), len(delays))
	}
	for i := range expected {
		if delays[i] != expected[i] {
			t.Errorf("Retry %d: expected delay %v, got %v", i+1, expected[i], delays[i])
		}
	}
	if task.Retries != DefaultMaxRetries {
		t.Errorf("Expected %d retries recorded, got %d", DefaultMaxRetries, task.Retries)
	}
}

func TestTaskAttrs(t *testing.T) {
	task := NewTask(TaskTypePollFeed, "ipt")
	task.begin()
	if task.StartedAt.IsZero() {
		t.Error("Expected start time to be recorded")
	}

	attrs := task.attrs("delay", "1s")
	if len(attrs) != 10 {
		t.Fatalf("Expected 10 attrs, got %d", len(attrs))
	}
	if attrs[0] != "type" || attrs[1] != "poll_feed" || attrs[8] != "delay" {
		t.Errorf("Unexpected attrs %v", attrs)
	}
	if task.Meta() != &task {
		t.Error("Expected Meta to return the task itself")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry); got != tt.want {
			t.Errorf("retryDelay(%d): expected %v, got %v", tt.retry, tt.want, got)
		}
	}
}
