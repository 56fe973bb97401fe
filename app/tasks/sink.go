package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/lysyi3m/tracker-rss/app/torrent"
)

// JSONLinesSink writes one JSON object per torrent, tagged with its feed.
type JSONLinesSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w}
}

type jsonLine struct {
	Feed string `json:"feed"`
	torrent.Torrent
}

func (s *JSONLinesSink) Deliver(ctx context.Context, feedName string, torrents []torrent.Torrent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, t := range torrents {
		if err := encoder.Encode(jsonLine{Feed: feedName, Torrent: t}); err != nil {
			return fmt.Errorf("failed to encode torrent: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write torrents: %w", err)
	}
	return nil
}

// RSSFileSink renders every poll as an RSS 2.0 document at <dir>/<feed>.xml.
type RSSFileSink struct {
	fs      afero.Fs
	dir     string
	version string
	now     func() time.Time
}

func NewRSSFileSink(fs afero.Fs, dir, version string) *RSSFileSink {
	return &RSSFileSink{fs: fs, dir: dir, version: version, now: time.Now}
}

func (s *RSSFileSink) Path(feedName string) string {
	return filepath.Join(s.dir, feedName+".xml")
}

func (s *RSSFileSink) Deliver(ctx context.Context, feedName string, torrents []torrent.Torrent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create feeds dir: %w", err)
	}

	path := s.Path(feedName)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, s.render(feedName, torrents), 0644); err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace feed: %w", err)
	}
	return nil
}

func (s *RSSFileSink) render(feedName string, torrents []torrent.Torrent) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "title", feedName, 4)
	writeElement(&buf, "description", fmt.Sprintf("Normalized torrents of %s", feedName), 4)
	writeElement(&buf, "lastBuildDate", s.now().Format(time.RFC1123Z), 4)
	writeElement(&buf, "generator", fmt.Sprintf("tracker-rss/%s", s.version), 4)

	for _, t := range torrents {
		writeItem(&buf, t)
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes()
}

func writeItem(buf *bytes.Buffer, t torrent.Torrent) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(t.Hash))
	buf.WriteString("</guid>\n")

	writeElement(buf, "title", t.Name, 6)
	writeElement(buf, "link", t.Link, 6)
	if t.Size > 0 {
		writeElement(buf, "description", fmt.Sprintf("Size: %s", humanize.IBytes(uint64(t.Size))), 6)
	}
	if t.PubTime > 0 {
		writeElement(buf, "pubDate", time.Unix(t.PubTime, 0).Format(time.RFC1123Z), 6)
	}
	if t.URL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"application/x-bittorrent\" />\n",
			html.EscapeString(t.URL),
			t.Size))
	}

	buf.WriteString("    </item>\n")
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// MultiSink delivers to every sink in order and stops at the first error.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, feedName string, torrents []torrent.Torrent) error {
	for _, s := range m {
		if err := s.Deliver(ctx, feedName, torrents); err != nil {
			return err
		}
	}
	return nil
}
