package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lysyi3m/tracker-rss/app/feed"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

func name(item feed.Item) (string, error) {
	n := torrent.NormalizeName(item.Title)
	if n == "" {
		return "", missing("title")
	}
	return n, nil
}

func required(field, value string) (string, error) {
	if value == "" {
		return "", missing(field)
	}
	return value, nil
}

// after returns the part of s following marker, or s itself when the
// marker is absent.
func after(s, marker string) string {
	if idx := strings.Index(s, marker); idx >= 0 {
		return s[idx+len(marker):]
	}
	return s
}

func submatch(field string, re *regexp.Regexp, s string) (string, error) {
	m := re.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return "", missing(field)
	}
	return m[1], nil
}

type sizeParser func(num, unit string) (int64, error)

// sizeFrom finds num and unit with re (two groups) in s and converts them.
func sizeFrom(field string, re *regexp.Regexp, s string, parse sizeParser) (int64, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, missing(field)
	}
	size, err := parse(m[1], m[2])
	if err != nil {
		return 0, invalid(field, err)
	}
	return size, nil
}

func parseLength(field, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, invalid(field, fmt.Errorf("invalid length %q", value))
	}
	return n, nil
}

func enclosure(item feed.Item) (string, int64, error) {
	if item.EnclosureURL == "" {
		return "", 0, missing("enclosure")
	}
	size, err := parseLength("enclosure.length", item.EnclosureLength)
	if err != nil {
		return "", 0, err
	}
	return item.EnclosureURL, size, nil
}

func pubTime(item feed.Item) int64 {
	if item.PublishedAt == nil {
		return 0
	}
	return item.PublishedAt.Unix()
}

// resolve fills the hash, and with withSize the size, of t from the
// resolver. A cached failure yields the sentinel hash.
func resolve(ctx context.Context, r HashResolver, t *torrent.Torrent, prefix string, withSize bool) error {
	if r == nil {
		return fmt.Errorf("no hash resolver configured")
	}

	res, err := r.Resolve(ctx, t.URL, prefix)
	if err != nil {
		return err
	}

	switch v := res.(type) {
	case torrent.Resolved:
		t.Hash = v.Hash
		if withSize {
			t.Size = v.Size
		}
	case torrent.Unresolved:
		t.Hash = v.Hash()
		if withSize {
			t.Size = 0
		}
	default:
		return fmt.Errorf("unexpected resolution %T", res)
	}
	return nil
}
