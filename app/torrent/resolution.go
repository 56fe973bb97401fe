package torrent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Resolution is the outcome of resolving a download URL: Resolved or
// Unresolved.
type Resolution interface {
	resolution()
}

// Resolved carries the identity computed from downloaded metainfo.
type Resolved struct {
	Hash string
	Size int64
	Name string
}

// Unresolved marks a download URL whose resolution failed at FailedAt.
type Unresolved struct {
	Prefix   string
	FailedAt time.Time
}

func (Resolved) resolution()   {}
func (Unresolved) resolution() {}

// Hash renders the sentinel that stands in for the real hash.
func (u Unresolved) Hash() string {
	return FormatSentinel(u.Prefix, u.FailedAt)
}

type cachedResolution struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
	Name string `json:"name,omitempty"`
}

// encodeResolution serializes r for the hash cache. Failures are stored as
// a sentinel hash with zero size.
func encodeResolution(r Resolution) (string, error) {
	var entry cachedResolution
	switch v := r.(type) {
	case Resolved:
		entry = cachedResolution{Hash: v.Hash, Size: v.Size, Name: v.Name}
	case Unresolved:
		entry = cachedResolution{Hash: v.Hash()}
	default:
		return "", fmt.Errorf("unknown resolution type %T", r)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeResolution reads a hash cache value. Besides the JSON form it
// accepts a bare hash string.
func decodeResolution(value string) (Resolution, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty cached resolution")
	}

	var entry cachedResolution
	if strings.HasPrefix(value, "{") {
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode cached resolution: %w", err)
		}
	} else {
		entry.Hash = value
	}

	if entry.Hash == "" {
		return nil, fmt.Errorf("cached resolution without hash")
	}
	if prefix, at, ok := ParseSentinel(entry.Hash); ok {
		return Unresolved{Prefix: prefix, FailedAt: at}, nil
	}
	return Resolved{Hash: entry.Hash, Size: entry.Size, Name: entry.Name}, nil
}
