package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("cache")

type boltEntry struct {
	Value     string `json:"v"`
	ExpiresAt int64  `json:"exp,omitempty"` // unix nanoseconds, 0 = never
}

// Bolt is a Store persisted in a bbolt file.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) Get(_ context.Context, key string) (string, bool, error) {
	var entry boltEntry
	found := false

	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(cacheBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("decoding entry %s: %w", key, err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return "", false, err
	}

	if entry.ExpiresAt != 0 && b.now().UnixNano() >= entry.ExpiresAt {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (b *Bolt) Set(_ context.Context, key, value string) error {
	return b.put(key, boltEntry{Value: value})
}

func (b *Bolt) SetWithExpire(_ context.Context, key, value string, ttl time.Duration) error {
	return b.put(key, boltEntry{Value: value, ExpiresAt: b.now().Add(ttl).UnixNano()})
}

func (b *Bolt) put(key string, entry boltEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), data)
	})
}

func (b *Bolt) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Delete([]byte(key))
	})
}

// Purge removes expired entries and returns how many were deleted.
func (b *Bolt) Purge(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := b.now().UnixNano()
	var removed int64

	err := b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(cacheBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry boltEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.ExpiresAt != 0 && now >= entry.ExpiresAt {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
