package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"

	"github.com/lysyi3m/tracker-rss/app/adapter"
	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/feed"
	"github.com/lysyi3m/tracker-rss/app/fetch"
	"github.com/lysyi3m/tracker-rss/app/pipeline"
	"github.com/lysyi3m/tracker-rss/app/store"
	"github.com/lysyi3m/tracker-rss/app/tasks"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg); err != nil {
		slog.Error("Tracker RSS failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg *cfg.Cfg) error {
	slog.Info("Starting Tracker RSS", "version", appCfg.Version, "cache_backend", appCfg.CacheBackend)

	lock, err := acquireLock(appCfg.TorrentsDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release lock", "error", err)
		}
	}()

	st, err := store.Open(ctx, store.Options{
		Backend:       appCfg.CacheBackend,
		RedisAddr:     appCfg.RedisAddr,
		RedisPassword: appCfg.RedisPassword,
		RedisDB:       appCfg.RedisDB,
		BoltPath:      appCfg.BoltPath,
		SQLitePath:    appCfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer st.Close()

	sites, err := cfg.LoadSites(appCfg.SitesFile)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	configCache := cfg.NewFeedConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount(), "sites", len(sites))

	keys := store.Keys{Namespace: appCfg.CacheNamespace}
	client := fetch.NewClient(appCfg.HTTPTimeout, appCfg.UserAgent)
	logger := slog.Default()

	contentCache := feed.NewContentCache(st, keys, client, sites, feed.TTLPolicy{
		Default:   appCfg.FeedTTL,
		Long:      appCfg.LongFeedTTL,
		HTML:      appCfg.HTMLFeedTTL,
		LongHosts: appCfg.LongTTLHosts,
	}, logger)

	osFs := afero.NewOsFs()
	resolver := torrent.NewResolver(st, keys, client, torrent.NewFileStore(osFs, appCfg.TorrentsDir), sites, logger)

	policy := adapter.FailFast
	if appCfg.IsolateItems {
		policy = adapter.SkipItem
	}
	p := pipeline.New(contentCache, feed.NewParser(), adapter.NewRegistry(resolver), policy, logger)

	sink := tasks.MultiSink{tasks.NewJSONLinesSink(os.Stdout)}
	if appCfg.OutputDir != "" {
		sink = append(sink, tasks.NewRSSFileSink(osFs, appCfg.OutputDir, appCfg.Version))
	}

	opts := tasks.SchedulerOptions{
		Interval:    appCfg.SchedulerInterval,
		WorkerCount: appCfg.WorkerCount,
		Logger:      logger,
	}
	if purger, ok := st.(store.Purger); ok {
		opts.Purger = purger
	}
	scheduler := tasks.NewScheduler(configCache, p, sink, opts)

	if appCfg.Once {
		return scheduler.RunOnce(ctx)
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler.Start()

	<-ctx.Done()
	slog.Info("Shutting down gracefully")
	scheduler.Stop()
	slog.Info("Background scheduler stopped")

	return nil
}

// acquireLock keeps two pollers from sharing one torrents directory.
func acquireLock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create torrents dir: %w", err)
	}

	lockPath := filepath.Join(dir, "tracker-rss.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another instance holds %s", lockPath)
	}
	return lock, nil
}
