package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerOptions struct {
	Interval    time.Duration
	WorkerCount int
	QueueSize   int
	Logger      *slog.Logger
	// Purger, when set, is purged of expired entries on every tick.
	Purger Purger
}

type Scheduler struct {
	configs     ConfigSource
	source      TorrentSource
	filterer    *Filterer
	sink        Sink
	purger      Purger
	interval    time.Duration
	workerCount int
	logger      *slog.Logger
	now         func() time.Time
	backoff     func(retryCount int) time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan Runnable

	mu       sync.Mutex
	nextPoll map[string]time.Time
	inFlight map[string]bool
}

func NewScheduler(configs ConfigSource, source TorrentSource, sink Sink, opts SchedulerOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 300
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Scheduler{
		configs:     configs,
		source:      source,
		filterer:    NewFilterer(),
		sink:        sink,
		purger:      opts.Purger,
		interval:    opts.Interval,
		workerCount: opts.WorkerCount,
		logger:      opts.Logger,
		now:         time.Now,
		backoff:     retryDelay,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan Runnable, opts.QueueSize),
		nextPoll:    make(map[string]time.Time),
		inFlight:    make(map[string]bool),
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

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
				s.purgeExpired()
			}
		}
	}()
}

// Stop cancels running tasks and waits for every worker to exit. The queue
// stays open so late retries never send on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task Runnable) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// RunOnce polls every enabled feed one time, retrying failed deliveries
// inline, and returns the deliveries that still failed.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	feedConfigs := s.configs.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		s.logger.Debug("No enabled feed configurations found")
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)
	for _, feedConfig := range feedConfigs {
		task := NewPollFeedTask(feedConfig, s.source, s.filterer, s.sink, s.logger)
		g.Go(func() error {
			if err := s.runWithRetries(gctx, task); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("feed %s: %w", task.FeedName, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (s *Scheduler) runWithRetries(ctx context.Context, task Runnable) error {
	meta := task.Meta()
	for {
		meta.begin()
		taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
		err := task.Execute(taskCtx)
		cancel()
		if err == nil || ctx.Err() != nil {
			return err
		}

		delay, ok := meta.retry(s.backoff)
		if !ok {
			return err
		}
		s.logger.Warn("Task retry scheduled", meta.attrs("delay", delay.String(), "error", err)...)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	feedConfigs := s.configs.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		s.logger.Debug("No enabled feed configurations found")
		return
	}

	now := s.now()
	for name, feedConfig := range feedConfigs {
		s.mu.Lock()
		next, seen := s.nextPoll[name]
		due := !s.inFlight[name] && (!seen || !next.After(now))
		if due {
			s.inFlight[name] = true
			s.nextPoll[name] = now.Add(feedConfig.Settings.GetRefreshInterval())
		}
		s.mu.Unlock()

		if !due {
			continue
		}

		task := NewPollFeedTask(feedConfig, s.source, s.filterer, s.sink, s.logger)
		if err := s.EnqueueTask(task); err != nil {
			s.logger.Warn("Failed to enqueue PollFeedTask", "feed", name, "error", err)
			s.finish(name)
		}
	}
}

func (s *Scheduler) purgeExpired() {
	if s.purger == nil {
		return
	}

	removed, err := s.purger.Purge(s.ctx)
	if err != nil {
		s.logger.Warn("Failed to purge expired cache entries", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug("Purged expired cache entries", "count", removed)
	}
}

func (s *Scheduler) finish(feedName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, feedName)
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

func (s *Scheduler) executeTask(workerID int, task Runnable) {
	meta := task.Meta()
	meta.begin()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.finish(meta.FeedName)
		return
	}

	s.logger.Error("Worker task execution failed", meta.attrs("worker_id", workerID, "error", err)...)

	delay, ok := meta.retry(s.backoff)
	if !ok {
		s.logger.Error("Task failed after maximum retries", meta.attrs("max_retries", meta.MaxRetries)...)
		s.finish(meta.FeedName)
		return
	}
	s.logger.Warn("Task retry scheduled", meta.attrs("delay", delay.String())...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			s.logger.Debug("Scheduler stopped, skipping task retry", meta.attrs()...)
			s.finish(meta.FeedName)
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				s.logger.Error("Failed to re-enqueue task for retry", meta.attrs("error", retryErr)...)
				s.finish(meta.FeedName)
			}
		}
	}()
}
