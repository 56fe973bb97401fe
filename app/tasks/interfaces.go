package tasks

import (
	"context"

	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

// TaskSchedulerInterface is what the binary needs to run the poller.
//
//	scheduler := NewScheduler(configs, source, sink, opts)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task Runnable) error
	RunOnce(ctx context.Context) error
}

// TorrentSource produces the normalized torrents of a feed. It never fails.
type TorrentSource interface {
	GetTorrents(ctx context.Context, feedURL string) []torrent.Torrent
}

// ConfigSource lists the feeds to poll.
type ConfigSource interface {
	GetEnabledConfigs() map[string]*cfg.FeedConfig
}

// Sink receives the torrents of one poll.
type Sink interface {
	Deliver(ctx context.Context, feedName string, torrents []torrent.Torrent) error
}

// Purger drops expired cache entries from a persistent store.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}
