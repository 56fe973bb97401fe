// Package pipeline fetches a tracker feed and normalizes it into torrent
// records, isolating every failure from the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/lysyi3m/tracker-rss/app/adapter"
	"github.com/lysyi3m/tracker-rss/app/feed"
	"github.com/lysyi3m/tracker-rss/app/fetch"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

// Failure causes reported in logs.
const (
	CauseFetch      = "fetch"
	CauseParse      = "parse"
	CauseExtraction = "extraction"
	CauseResolution = "resolution"
	CauseInternal   = "internal"
)

// Fetcher returns the raw body of a feed.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, bust bool) (string, error)
}

type Pipeline struct {
	fetcher  Fetcher
	parser   *feed.Parser
	registry *adapter.Registry
	policy   adapter.Policy
	logger   *slog.Logger
}

func New(fetcher Fetcher, parser *feed.Parser, registry *adapter.Registry, policy adapter.Policy, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:  fetcher,
		parser:   parser,
		registry: registry,
		policy:   policy,
		logger:   logger,
	}
}

// GetTorrents returns the normalized items of feedURL. It never fails: any
// error is logged once with the feed host and cause and yields an empty
// list.
func (p *Pipeline) GetTorrents(ctx context.Context, feedURL string) (torrents []torrent.Torrent) {
	host := hostOf(feedURL)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Failed to get torrents",
				"host", host,
				"cause", CauseInternal,
				"error", fmt.Sprintf("panic: %v", r))
			torrents = []torrent.Torrent{}
		}
	}()

	result, err := p.run(ctx, feedURL, host)
	if err != nil {
		p.logger.Error("Failed to get torrents",
			"host", host,
			"cause", Cause(err),
			"error", err)
		return []torrent.Torrent{}
	}
	return result
}

func (p *Pipeline) run(ctx context.Context, feedURL, host string) ([]torrent.Torrent, error) {
	if host == "" {
		return nil, fmt.Errorf("invalid feed url %q", feedURL)
	}

	a := p.registry.Dispatch(host)

	body, err := p.fetcher.Fetch(ctx, feedURL, a.CacheBust)
	if err != nil {
		return nil, err
	}

	doc, err := p.parser.Run(body)
	if err != nil {
		return nil, err
	}

	torrents, err := adapter.Collect(a.Items(ctx, feedURL, doc), p.policy, func(r adapter.Result) {
		p.logger.Warn("Skipping feed item",
			"host", host,
			"index", r.Index,
			"cause", Cause(r.Err),
			"error", r.Err)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Feed normalized",
		"host", host,
		"adapter", a.Kind.String(),
		"items", len(doc.Items),
		"torrents", len(torrents))

	return torrents, nil
}

// Cause classifies err into one of the failure causes.
func Cause(err error) string {
	var (
		fetchErr      *fetch.Error
		parseErr      *feed.ParseError
		resolutionErr *torrent.ResolutionError
		extractionErr *adapter.ExtractionError
	)
	switch {
	case errors.As(err, &resolutionErr):
		return CauseResolution
	case errors.As(err, &fetchErr):
		return CauseFetch
	case errors.As(err, &parseErr):
		return CauseParse
	case errors.As(err, &extractionErr):
		return CauseExtraction
	default:
		return CauseInternal
	}
}

func hostOf(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
