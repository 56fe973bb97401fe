package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Cache store configuration
	CacheBackend   string `long:"cache-backend" env:"CACHE_BACKEND" default:"memory" choice:"memory" choice:"redis" choice:"bolt" choice:"sqlite" description:"Cache store backend"`
	CacheNamespace string `long:"cache-namespace" env:"CACHE_NAMESPACE" default:"vertex" description:"Prefix for cache keys"`
	RedisAddr      string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
	RedisPassword  string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB        int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	BoltPath       string `long:"bolt-path" env:"BOLT_PATH" default:"./data/cache.db" description:"Bolt database file"`
	SQLitePath     string `long:"sqlite-path" env:"SQLITE_PATH" default:"./data/cache.sqlite" description:"SQLite database file"`

	// Feed ingestion configuration
	TorrentsDir  string   `long:"torrents-dir" env:"TORRENTS_DIR" default:"./torrents" description:"Directory where resolved torrent files are stored"`
	SitesFile    string   `long:"sites-file" env:"SITES_FILE" default:"./sites.yml" description:"YAML file with per-host credentials"`
	FeedsDir     string   `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	HTTPTimeout  int      `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	FeedTTL      int      `long:"feed-ttl" env:"FEED_TTL" default:"40" description:"Feed cache TTL in seconds"`
	LongFeedTTL  int      `long:"long-feed-ttl" env:"LONG_FEED_TTL" default:"150" description:"Feed cache TTL in seconds for rate-limited trackers"`
	HTMLFeedTTL  int      `long:"html-feed-ttl" env:"HTML_FEED_TTL" default:"290" description:"Feed cache TTL in seconds for HTML-wrapped responses"`
	LongTTLHosts []string `long:"long-ttl-host" env:"LONG_TTL_HOSTS" env-delim:"," default:"lemon" default:"hhanclub" description:"Host substrings that use the long feed TTL"`
	OutputDir    string   `long:"output-dir" env:"OUTPUT_DIR" description:"Directory for rendered per-feed RSS files (disabled when empty)"`
	IsolateItems bool     `long:"isolate-items" env:"ISOLATE_ITEMS" description:"Skip items that fail extraction instead of dropping the whole feed"`

	// Poller configuration
	WorkerCount       int  `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for feed polling"`
	SchedulerInterval int  `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	Once              bool `long:"once" env:"ONCE" description:"Poll every enabled feed once, print the torrents and exit"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Tracker RSS/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line arguments and environment variables. It returns
// nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs is Load with explicit arguments; nil means os.Args.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		CacheBackend:      raw.CacheBackend,
		CacheNamespace:    raw.CacheNamespace,
		RedisAddr:         raw.RedisAddr,
		RedisPassword:     raw.RedisPassword,
		RedisDB:           raw.RedisDB,
		BoltPath:          raw.BoltPath,
		SQLitePath:        raw.SQLitePath,
		TorrentsDir:       raw.TorrentsDir,
		SitesFile:         raw.SitesFile,
		FeedsDir:          raw.FeedsDir,
		HTTPTimeout:       time.Duration(raw.HTTPTimeout) * time.Second,
		FeedTTL:           time.Duration(raw.FeedTTL) * time.Second,
		LongFeedTTL:       time.Duration(raw.LongFeedTTL) * time.Second,
		HTMLFeedTTL:       time.Duration(raw.HTMLFeedTTL) * time.Second,
		LongTTLHosts:      trimAll(raw.LongTTLHosts),
		OutputDir:         raw.OutputDir,
		IsolateItems:      raw.IsolateItems,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: time.Duration(raw.SchedulerInterval) * time.Second,
		Once:              raw.Once,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) validate() error {
	positive := map[string]time.Duration{
		"http timeout":       c.HTTPTimeout,
		"feed ttl":           c.FeedTTL,
		"long feed ttl":      c.LongFeedTTL,
		"html feed ttl":      c.HTMLFeedTTL,
		"scheduler interval": c.SchedulerInterval,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if c.CacheNamespace == "" {
		return fmt.Errorf("cache namespace is required")
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
