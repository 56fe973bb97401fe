// Package store provides the key-value cache store shared by the feed
// content cache and the hash resolver.
package store

import (
	"context"
	"fmt"
	"time"
)

// Store is a key-value store with optional per-key expiry. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. The boolean is false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores a value that never expires.
	Set(ctx context.Context, key, value string) error
	// SetWithExpire stores a value that expires after ttl.
	SetWithExpire(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Purger is implemented by backends that keep expired entries on disk
// until they are purged.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

var (
	_ Purger = (*Bolt)(nil)
	_ Purger = (*SQLite)(nil)
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BoltPath      string
	SQLitePath    string
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case "bolt":
		return NewBolt(opts.BoltPath)
	case "sqlite":
		return NewSQLite(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", opts.Backend)
	}
}

// Keys builds namespaced cache keys.
type Keys struct {
	Namespace string
}

// Feed is the key of the raw feed body cached for feedURL.
func (k Keys) Feed(feedURL string) string {
	return fmt.Sprintf("%s:rss:%s", k.Namespace, feedURL)
}

// Hash is the key of the hash resolution cached for downloadURL.
func (k Keys) Hash(downloadURL string) string {
	return fmt.Sprintf("%s:hash:%s", k.Namespace, downloadURL)
}
