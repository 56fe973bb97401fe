package torrent

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Sentinel prefixes of the trackers that resolve hashes by download.
const (
	PrefixCHD    = "chd"
	PrefixUHD    = "uhd"
	PrefixEMP    = "emp"
	PrefixSkyey  = "skyey"
	PrefixHDBits = "hdbits"
)

// SentinelPrefixes lists every prefix in use. Each contains a non-hex
// letter, so a sentinel never has the shape of a real hash.
var SentinelPrefixes = []string{PrefixCHD, PrefixUHD, PrefixEMP, PrefixSkyey, PrefixHDBits}

// KnownSentinelPrefix reports whether prefix is registered.
func KnownSentinelPrefix(prefix string) bool {
	return slices.Contains(SentinelPrefixes, prefix)
}

// FormatSentinel renders <prefix><unix seconds><prefix>.
func FormatSentinel(prefix string, at time.Time) string {
	return fmt.Sprintf("%s%d%s", prefix, at.Unix(), prefix)
}

// ParseSentinel extracts the prefix and timestamp from a sentinel hash.
func ParseSentinel(s string) (string, time.Time, bool) {
	for _, prefix := range SentinelPrefixes {
		if len(s) <= 2*len(prefix) || !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, prefix) {
			continue
		}
		digits := s[len(prefix) : len(s)-len(prefix)]
		if strings.TrimLeft(digits, "0123456789") != "" {
			continue
		}
		unix, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		return prefix, time.Unix(unix, 0), true
	}
	return "", time.Time{}, false
}

// IsSentinel reports whether s marks a failed resolution.
func IsSentinel(s string) bool {
	_, _, ok := ParseSentinel(s)
	return ok
}
