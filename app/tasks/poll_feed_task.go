package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

// PollFeedTask normalizes one feed and hands the filtered result to a sink.
// A retried task redelivers the torrents of its first poll.
type PollFeedTask struct {
	Task
	FeedConfig *cfg.FeedConfig
	source     TorrentSource
	filterer   *Filterer
	sink       Sink
	logger     *slog.Logger
	pending    []torrent.Torrent
}

func NewPollFeedTask(feedConfig *cfg.FeedConfig, source TorrentSource, filterer *Filterer, sink Sink, logger *slog.Logger) *PollFeedTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollFeedTask{
		Task:       NewTask(TaskTypePollFeed, feedConfig.Name),
		FeedConfig: feedConfig,
		source:     source,
		filterer:   filterer,
		sink:       sink,
		logger:     logger,
	}
}

func (t *PollFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		t.logger.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	if t.pending == nil {
		pollCtx, cancel := context.WithTimeout(ctx, t.FeedConfig.Settings.GetTimeout())
		torrents := t.source.GetTorrents(pollCtx, t.FeedConfig.URL)
		cancel()

		kept, reasons := t.filterer.Run(torrents, t.FeedConfig)
		for _, reason := range reasons {
			t.logger.Debug("Torrent filtered", "feed", t.FeedName, "reason", reason)
		}
		if kept == nil {
			kept = []torrent.Torrent{}
		}
		t.pending = kept

		t.logger.Info("Feed polled",
			"feed", t.FeedName,
			"total", len(torrents),
			"filtered", len(reasons),
			"kept", len(kept))
	}

	if err := t.sink.Deliver(ctx, t.FeedName, t.pending); err != nil {
		return fmt.Errorf("failed to deliver torrents: %w", err)
	}

	t.logger.Info("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"duration", time.Since(t.StartedAt),
		"delivered", len(t.pending))

	return nil
}
