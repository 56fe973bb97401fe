package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/fetch"
	"github.com/lysyi3m/tracker-rss/app/store"
)

const (
	htmlWrapMarker = "xml-viewer-style"
	xmlProlog      = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
	cacheBustParam = "____"
)

var rssBlock = regexp.MustCompile(`(?s)<rss.*</rss>`)

// TTLPolicy selects how long a fetched feed body stays cached.
type TTLPolicy struct {
	Default time.Duration
	Long    time.Duration
	HTML    time.Duration
	// LongHosts are host substrings that get the Long TTL.
	LongHosts []string
}

func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Default:   40 * time.Second,
		Long:      150 * time.Second,
		HTML:      290 * time.Second,
		LongHosts: []string{"lemon", "hhanclub"},
	}
}

// For returns the TTL for a body fetched from host. HTML-wrapped bodies
// always get the HTML class.
func (p TTLPolicy) For(host string, htmlWrapped bool) time.Duration {
	if htmlWrapped {
		return p.HTML
	}
	for _, h := range p.LongHosts {
		if h != "" && strings.Contains(host, h) {
			return p.Long
		}
	}
	return p.Default
}

// SiteLookup resolves per-host request credentials.
type SiteLookup interface {
	Lookup(host string) (cfg.Site, bool)
}

// ContentCache fetches raw feed bodies through an expiring cache.
type ContentCache struct {
	store  store.Store
	keys   store.Keys
	doer   fetch.Doer
	sites  SiteLookup
	ttl    TTLPolicy
	logger *slog.Logger
	group  singleflight.Group
	random func() float64
}

func NewContentCache(st store.Store, keys store.Keys, doer fetch.Doer, sites SiteLookup, ttl TTLPolicy, logger *slog.Logger) *ContentCache {
	if logger == nil {
		logger = slog.Default()
	}
	if sites == nil {
		sites = cfg.Sites{}
	}
	return &ContentCache{
		store:  st,
		keys:   keys,
		doer:   doer,
		sites:  sites,
		ttl:    ttl,
		logger: logger,
		random: rand.Float64,
	}
}

// Fetch returns the body of feedURL, from the cache when present. With bust
// set, a random query parameter is appended to the upstream request.
// Concurrent misses for the same URL share one upstream request.
func (c *ContentCache) Fetch(ctx context.Context, feedURL string, bust bool) (string, error) {
	key := c.keys.Feed(feedURL)

	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read feed cache: %w", err)
	}
	if ok {
		c.logger.Debug("Feed cache hit", "feed", feedURL)
		return cached, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the entry meanwhile
		if cached, ok, err := c.store.Get(ctx, key); err == nil && ok {
			return cached, nil
		}
		return c.fetchAndStore(ctx, feedURL, key, bust)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *ContentCache) fetchAndStore(ctx context.Context, feedURL, key string, bust bool) (string, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return "", &fetch.Error{URL: feedURL, Err: err}
	}

	requestURL := feedURL
	if bust {
		requestURL = c.bustURL(feedURL)
	}

	header := http.Header{}
	if site, ok := c.sites.Lookup(parsed.Host); ok {
		if site.Cookie != "" {
			header.Set("Cookie", site.Cookie)
		}
		if site.UserAgent != "" {
			header.Set("User-Agent", site.UserAgent)
		}
	}

	resp, err := c.doer.Do(ctx, fetch.Request{URL: requestURL, Method: http.MethodGet, Header: header})
	if err != nil {
		return "", err
	}

	body, htmlWrapped, err := unwrapHTML(string(resp.Body))
	if err != nil {
		return "", err
	}

	ttl := c.ttl.For(parsed.Host, htmlWrapped)
	if err := c.store.SetWithExpire(ctx, key, body, ttl); err != nil {
		return "", fmt.Errorf("failed to write feed cache: %w", err)
	}

	c.logger.Debug("Feed fetched",
		"feed", feedURL,
		"size", humanize.IBytes(uint64(len(body))),
		"html_wrapped", htmlWrapped,
		"ttl", ttl)

	return body, nil
}

func (c *ContentCache) bustURL(feedURL string) string {
	sep := "?"
	if strings.Contains(feedURL, "?") {
		sep = "&"
	}
	return feedURL + sep + cacheBustParam + "=" + strconv.FormatFloat(c.random(), 'f', -1, 64)
}

// unwrapHTML extracts the embedded rss document from a browser XML viewer
// page. Bodies without the marker are returned unchanged.
func unwrapHTML(body string) (string, bool, error) {
	if !strings.Contains(body, htmlWrapMarker) {
		return body, false, nil
	}

	block := rssBlock.FindString(body)
	if block == "" {
		return "", true, &ParseError{Reason: "html-wrapped response without rss block"}
	}
	return xmlProlog + block, true, nil
}
