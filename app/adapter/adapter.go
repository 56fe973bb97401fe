// Package adapter turns parsed tracker feeds into torrent records using one
// rule set per tracker.
package adapter

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/lysyi3m/tracker-rss/app/feed"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

// HashResolver resolves a download URL into a torrent identity.
type HashResolver interface {
	Resolve(ctx context.Context, downloadURL, prefix string) (torrent.Resolution, error)
}

type extractFunc func(ctx context.Context, r HashResolver, feedURL string, item feed.Item) (torrent.Torrent, error)

// Adapter reads the items of one tracker's feed.
type Adapter struct {
	Kind Kind
	// CacheBust requests a random query parameter on feed fetches.
	CacheBust bool

	limit      int
	limitHosts []string
	extract    extractFunc
	resolver   HashResolver
}

// Limit returns how many leading items of feedURL are processed, 0 for all.
func (a *Adapter) Limit(feedURL string) int {
	if a.limit <= 0 {
		return 0
	}
	if len(a.limitHosts) == 0 {
		return a.limit
	}
	for _, h := range a.limitHosts {
		if strings.Contains(feedURL, h) {
			return a.limit
		}
	}
	return 0
}

// Result is the outcome for one feed item. Err is an *ExtractionError, a
// resolution failure, or the context error.
type Result struct {
	Index   int
	Torrent torrent.Torrent
	Err     error
}

// Items yields one Result per processed item, in feed order. Items are
// extracted lazily, so a consumer that stops early skips the remaining
// downloads.
func (a *Adapter) Items(ctx context.Context, feedURL string, doc *feed.Document) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		items := doc.Items
		if limit := a.Limit(feedURL); limit > 0 && len(items) > limit {
			items = items[:limit]
		}

		for i, item := range items {
			if err := ctx.Err(); err != nil {
				yield(Result{Index: i, Err: err})
				return
			}

			t, err := a.extract(ctx, a.resolver, feedURL, item)
			if err != nil {
				err = a.wrap(i, err)
			}
			if !yield(Result{Index: i, Torrent: t, Err: err}) {
				return
			}
		}
	}
}

func (a *Adapter) wrap(index int, err error) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return &ExtractionError{Adapter: a.Kind, Index: index, Field: fe.field, Err: fe.err}
	}
	return err
}

// Policy decides what a failed item does to the rest of the feed.
type Policy int

const (
	// FailFast aborts the feed on the first failed item.
	FailFast Policy = iota
	// SkipItem drops failed items and keeps the rest.
	SkipItem
)

// Collect drains seq under policy. skipped, when non-nil, is called for
// every item dropped by SkipItem. A context error always aborts.
func Collect(seq iter.Seq[Result], policy Policy, skipped func(Result)) ([]torrent.Torrent, error) {
	torrents := make([]torrent.Torrent, 0)

	for res := range seq {
		if res.Err == nil {
			torrents = append(torrents, res.Torrent)
			continue
		}

		if policy == FailFast || errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return nil, res.Err
		}
		if skipped != nil {
			skipped(res)
		}
	}

	return torrents, nil
}

// Registry selects adapters by feed host.
type Registry struct {
	adapters map[Kind]*Adapter
}

// NewRegistry builds every adapter. resolver serves the trackers whose
// feeds carry no usable hash.
func NewRegistry(resolver HashResolver) *Registry {
	reg := &Registry{adapters: make(map[Kind]*Adapter, len(rules))}
	for kind, rule := range rules {
		reg.adapters[kind] = &Adapter{
			Kind:       kind,
			CacheBust:  !rule.noCacheBust,
			limit:      rule.limit,
			limitHosts: rule.limitHosts,
			extract:    rule.extract,
			resolver:   resolver,
		}
	}
	return reg
}

// Dispatch returns the adapter for host, or the default adapter.
func (r *Registry) Dispatch(host string) *Adapter {
	if a, ok := r.adapters[KindForHost(host)]; ok {
		return a
	}
	return r.adapters[KindDefault]
}
