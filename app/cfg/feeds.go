package cfg

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type FeedConfig struct {
	Name     string       // Derived from filename (without .yml extension)
	URL      string       `yaml:"url"`
	Settings FeedSettings `yaml:"settings"`
	Filters  []FeedFilter `yaml:"filters"`
}

type FeedSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds
}

// FeedFilter keeps or drops torrents by a case-insensitive substring match
// on one record field.
type FeedFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// FilterFields lists the torrent fields a filter may match on.
var FilterFields = []string{"name", "link", "url", "id", "hash"}

func (s FeedSettings) GetRefreshInterval() time.Duration {
	if s.RefreshInterval <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.RefreshInterval) * time.Second
}

func (s FeedSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// FeedConfigCache loads and holds the per-feed YAML configs of a directory.
type FeedConfigCache struct {
	feedsDir string
	cache    map[string]*FeedConfig
	mu       sync.RWMutex
}

func NewFeedConfigCache(feedsDir string) *FeedConfigCache {
	return &FeedConfigCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*FeedConfig),
	}
}

func (cc *FeedConfigCache) Run() error {
	if _, err := os.Stat(cc.feedsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(feedName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", config.Settings.Enabled, "refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

func (cc *FeedConfigCache) LoadConfig(feedName string) (*FeedConfig, error) {
	configFile := filepath.Join(cc.feedsDir, feedName+".yml")
	feedConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	feedConfig.Name = feedName

	if err := cc.validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[feedConfig.Name] = feedConfig

	return feedConfig, nil
}

func (cc *FeedConfigCache) GetConfig(feedName string) (*FeedConfig, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.cache[feedName]
	if !ok {
		return nil, fmt.Errorf("feed config with name '%s' not found", feedName)
	}
	return feedConfig, nil
}

func (cc *FeedConfigCache) GetEnabledConfigs() map[string]*FeedConfig {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*FeedConfig)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *FeedConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *FeedConfigCache) parseConfig(configFile string) (*FeedConfig, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var feedConfig FeedConfig
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if feedConfig.Settings.RefreshInterval == 0 {
		feedConfig.Settings.RefreshInterval = 60
	}

	return &feedConfig, nil
}

func (cc *FeedConfigCache) validateConfig(feedConfig *FeedConfig) error {
	if feedConfig.URL == "" {
		return fmt.Errorf("feed URL is required")
	}
	u, err := url.Parse(feedConfig.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("feed URL is not absolute: %s", feedConfig.URL)
	}
	if feedConfig.Settings.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	if feedConfig.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	for i, filter := range feedConfig.Filters {
		if !slices.Contains(FilterFields, filter.Field) {
			return fmt.Errorf("filter %d: unknown field '%s'", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter %d: includes or excludes required", i)
		}
	}
	return nil
}
