package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFeedConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFeedConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()
	writeFeedConfig(t, tempDir, "hdbits", `
url: "https://hdbits.org/rss/feed?passkey=abc"
settings:
  enabled: true
  refresh_interval: 120
`)

	configCache := NewFeedConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 feed config, got %d", configCache.GetConfigCount())
	}

	feedConfig, err := configCache.GetConfig("hdbits")
	if err != nil {
		t.Fatal(err)
	}
	if feedConfig.Name != "hdbits" {
		t.Errorf("Expected name 'hdbits', got '%s'", feedConfig.Name)
	}
	if feedConfig.Settings.GetRefreshInterval() != 120*time.Second {
		t.Errorf("Expected refresh interval 120s, got %v", feedConfig.Settings.GetRefreshInterval())
	}
}

func TestFeedConfigCacheDefaults(t *testing.T) {
	tempDir := t.TempDir()
	writeFeedConfig(t, tempDir, "mikan", `
url: "https://mikanani.me/RSS/MyBangumi?token=x"
settings:
  enabled: true
`)

	configCache := NewFeedConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	feedConfig, err := configCache.GetConfig("mikan")
	if err != nil {
		t.Fatal(err)
	}
	if feedConfig.Settings.RefreshInterval != 60 {
		t.Errorf("Expected default refresh interval 60, got %d", feedConfig.Settings.RefreshInterval)
	}
}

func TestFeedConfigCacheInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()
	writeFeedConfig(t, tempDir, "broken", `
settings:
  enabled: true
`)

	configCache := NewFeedConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Error("Expected error for config without URL")
	}
}

func TestFeedConfigCacheEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()
	writeFeedConfig(t, tempDir, "on", `
url: "https://example.com/on.xml"
settings:
  enabled: true
`)
	writeFeedConfig(t, tempDir, "off", `
url: "https://example.com/off.xml"
settings:
  enabled: false
`)

	configCache := NewFeedConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	enabled := configCache.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["on"]; !ok {
		t.Error("Expected 'on' to be enabled")
	}
}

func TestFeedConfigCacheMissingDir(t *testing.T) {
	configCache := NewFeedConfigCache(filepath.Join(t.TempDir(), "nope"))
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", configCache.GetConfigCount())
	}
}

func TestFeedConfigCacheFilters(t *testing.T) {
	tempDir := t.TempDir()
	writeFeedConfig(t, tempDir, "ipt", `
url: "https://iptorrents.com/t.rss?u=1"
settings:
  enabled: true
  timeout: 15
filters:
  - field: name
    includes: ["1080p", "2160p"]
    excludes: ["CAM"]
`)

	configCache := NewFeedConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	feedConfig, err := configCache.GetConfig("ipt")
	if err != nil {
		t.Fatal(err)
	}
	if len(feedConfig.Filters) != 1 {
		t.Fatalf("Expected 1 filter, got %d", len(feedConfig.Filters))
	}
	filter := feedConfig.Filters[0]
	if filter.Field != "name" || len(filter.Includes) != 2 || len(filter.Excludes) != 1 {
		t.Errorf("Unexpected filter %+v", filter)
	}
	if feedConfig.Settings.GetTimeout() != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", feedConfig.Settings.GetTimeout())
	}
}

func TestFeedConfigCacheInvalidFilters(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `
url: "https://example.com/a.xml"
filters:
  - field: description
    includes: ["x"]
`},
		{"empty filter", `
url: "https://example.com/a.xml"
filters:
  - field: name
`},
		{"negative timeout", `
url: "https://example.com/a.xml"
settings:
  timeout: -1
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeFeedConfig(t, tempDir, "bad", tt.content)

			if err := NewFeedConfigCache(tempDir).Run(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
