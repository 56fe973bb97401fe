package cfg

import "time"

type Cfg struct {
	// Cache store configuration
	CacheBackend   string
	CacheNamespace string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	BoltPath       string
	SQLitePath     string

	// Feed ingestion configuration
	TorrentsDir  string
	SitesFile    string
	FeedsDir     string
	HTTPTimeout  time.Duration
	FeedTTL      time.Duration
	LongFeedTTL  time.Duration
	HTMLFeedTTL  time.Duration
	LongTTLHosts []string
	OutputDir    string
	IsolateItems bool

	// Poller configuration
	WorkerCount       int
	SchedulerInterval time.Duration
	Once              bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
