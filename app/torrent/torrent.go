// Package torrent holds the canonical torrent record and the helpers that
// produce its fields: size parsing, placeholder and sentinel hashes and hash
// resolution from downloaded metainfo.
package torrent

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Torrent is the normalized form of one tracker feed item.
type Torrent struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Hash    string `json:"hash"`
	ID      string `json:"id"`
	URL     string `json:"url"`
	Link    string `json:"link"`
	PubTime int64  `json:"pubTime,omitempty"`
}

const (
	PlaceholderMarker    = "fakehash"
	PlaceholderMarkerIPT = "fakehashipt"
)

// Placeholder builds the synthetic hash used for trackers that never expose
// one: <marker><id><marker>.
func Placeholder(marker, id string) string {
	return marker + id + marker
}

// NormalizeName trims a title and converts it to NFC so identical titles
// from differently encoded feeds compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// IsInfoHash reports whether s is a 40 character hex infohash.
func IsInfoHash(s string) bool {
	return len(s) == 40 && isHex(s)
}

// IsResolvedHash reports whether s has the 32 character hex shape produced
// by the resolver.
func IsResolvedHash(s string) bool {
	return len(s) == 32 && isHex(s)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
