package torrent

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/fetch"
	"github.com/lysyi3m/tracker-rss/app/store"
)

// Archive persists resolved torrent files by hash.
type Archive interface {
	Write(hash string, data []byte) error
}

// SiteLookup resolves per-host request credentials.
type SiteLookup interface {
	Lookup(host string) (cfg.Site, bool)
}

// Resolver computes torrent identities by downloading metainfo. Results,
// including failures, are cached permanently per download URL.
type Resolver struct {
	store  store.Store
	keys   store.Keys
	doer   fetch.Doer
	files  Archive
	sites  SiteLookup
	logger *slog.Logger
	now    func() time.Time
}

func NewResolver(st store.Store, keys store.Keys, doer fetch.Doer, files Archive, sites SiteLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if sites == nil {
		sites = cfg.Sites{}
	}
	return &Resolver{
		store:  st,
		keys:   keys,
		doer:   doer,
		files:  files,
		sites:  sites,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve returns the identity of the torrent at downloadURL. A cached
// entry is returned without any network request; a cached failure comes
// back as Unresolved and is not retried. A fresh failure is cached under
// prefix before the *ResolutionError is returned.
func (r *Resolver) Resolve(ctx context.Context, downloadURL, prefix string) (Resolution, error) {
	if !KnownSentinelPrefix(prefix) {
		return nil, fmt.Errorf("unknown sentinel prefix %q", prefix)
	}

	key := r.keys.Hash(downloadURL)

	cached, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read hash cache: %w", err)
	}
	if ok {
		res, err := decodeResolution(cached)
		if err == nil {
			return res, nil
		}
		r.logger.Warn("Discarding unreadable hash cache entry", "url", downloadURL, "error", err)
	}

	content, err := r.download(ctx, downloadURL)
	if err != nil {
		// An aborted caller leaves no trace so the next poll retries.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("download of %s interrupted: %w", downloadURL, ctxErr)
		}
		return r.fail(ctx, key, downloadURL, prefix, err)
	}

	meta, err := ParseMetainfo(content)
	if err != nil {
		return r.fail(ctx, key, downloadURL, prefix, err)
	}

	if err := r.files.Write(meta.Hash, content); err != nil {
		return r.fail(ctx, key, downloadURL, prefix, err)
	}

	res := Resolved{Hash: meta.Hash, Size: meta.Size, Name: meta.Name}
	if err := r.save(ctx, key, res); err != nil {
		return nil, err
	}

	r.logger.Debug("Resolved torrent hash",
		"url", downloadURL,
		"hash", meta.Hash,
		"size", humanize.IBytes(uint64(meta.Size)))

	return res, nil
}

// Invalidate drops the cached resolution of downloadURL so the next Resolve
// downloads it again.
func (r *Resolver) Invalidate(ctx context.Context, downloadURL string) error {
	return r.store.Delete(ctx, r.keys.Hash(downloadURL))
}

// TorrentName reads the file name a tracker advertises for downloadURL in
// its content-disposition header.
func (r *Resolver) TorrentName(ctx context.Context, downloadURL string) (string, error) {
	resp, err := r.doer.Do(ctx, fetch.Request{
		URL:    downloadURL,
		Method: http.MethodHead,
		Header: r.header(downloadURL),
	})
	if err != nil {
		return "", err
	}

	disposition := resp.Header.Get("Content-Disposition")
	if disposition == "" {
		return "", fmt.Errorf("no content-disposition for %s", downloadURL)
	}
	return dispositionFilename(disposition)
}

func (r *Resolver) download(ctx context.Context, downloadURL string) ([]byte, error) {
	resp, err := r.doer.Do(ctx, fetch.Request{
		URL:    downloadURL,
		Method: http.MethodGet,
		Header: r.header(downloadURL),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (r *Resolver) header(downloadURL string) http.Header {
	header := http.Header{}
	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return header
	}
	if site, ok := r.sites.Lookup(parsed.Host); ok {
		if site.Cookie != "" {
			header.Set("Cookie", site.Cookie)
		}
		if site.UserAgent != "" {
			header.Set("User-Agent", site.UserAgent)
		}
	}
	return header
}

func (r *Resolver) fail(ctx context.Context, key, downloadURL, prefix string, cause error) (Resolution, error) {
	res := Unresolved{Prefix: prefix, FailedAt: r.now()}
	if err := r.save(ctx, key, res); err != nil {
		r.logger.Error("Failed to cache resolution failure", "url", downloadURL, "error", err)
	}
	return res, &ResolutionError{URL: downloadURL, Err: cause}
}

func (r *Resolver) save(ctx context.Context, key string, res Resolution) error {
	encoded, err := encodeResolution(res)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key, encoded); err != nil {
		return fmt.Errorf("failed to write hash cache: %w", err)
	}
	return nil
}

func dispositionFilename(disposition string) (string, error) {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return unescapeFilename(params["filename"]), nil
	}

	idx := strings.Index(disposition, "filename=")
	if idx < 0 {
		return "", fmt.Errorf("no filename in content-disposition %q", disposition)
	}
	name := strings.TrimSpace(disposition[idx+len("filename="):])
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return unescapeFilename(strings.Trim(name, `"`)), nil
}

func unescapeFilename(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
