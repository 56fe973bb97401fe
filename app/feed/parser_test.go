package feed

import (
	"errors"
	"testing"
	"time"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
  <channel>
    <title>Tracker</title>
    <link>https://tracker.example</link>
    <description>Latest torrents</description>
    <item>
      <title>Some.Movie.2023.1080p.BluRay</title>
      <link>https://tracker.example/details.php?id=42</link>
      <description>Size: 2.50 GB; Movies/HD</description>
      <comments>https://tracker.example/details.php?id=42#comments</comments>
      <guid>https://tracker.example/details.php?id=42</guid>
      <enclosure url="https://tracker.example/download.php?id=42" length="2500000000" type="application/x-bittorrent"/>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Other &amp; Show S01E01</title>
      <link>https://tracker.example/details.php?id=43</link>
      <guid>abc</guid>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	doc, err := parser.Run(rssData)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.Title != "Tracker" {
		t.Errorf("Expected title 'Tracker', got: %s", doc.Title)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(doc.Items))
	}

	item := doc.Items[0]
	if item.Title != "Some.Movie.2023.1080p.BluRay" {
		t.Errorf("Expected item title, got: %s", item.Title)
	}
	if item.Description != "Size: 2.50 GB; Movies/HD" {
		t.Errorf("Expected description, got: %s", item.Description)
	}
	if item.Comments != "https://tracker.example/details.php?id=42#comments" {
		t.Errorf("Expected comments, got: %s", item.Comments)
	}
	if item.GUID != "https://tracker.example/details.php?id=42" {
		t.Errorf("Expected guid, got: %s", item.GUID)
	}
	if item.EnclosureURL != "https://tracker.example/download.php?id=42" {
		t.Errorf("Expected enclosure url, got: %s", item.EnclosureURL)
	}
	if item.EnclosureLength != "2500000000" {
		t.Errorf("Expected enclosure length, got: %s", item.EnclosureLength)
	}
	if item.PublishedAt == nil {
		t.Fatal("Expected published date to be parsed")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(expected) {
		t.Errorf("Expected published %v, got %v", expected, item.PublishedAt)
	}

	second := doc.Items[1]
	if second.Title != "Other & Show S01E01" {
		t.Errorf("Expected unescaped title, got: %s", second.Title)
	}
	if second.PublishedAt != nil {
		t.Errorf("Expected no published date, got %v", second.PublishedAt)
	}
	if second.EnclosureURL != "" {
		t.Errorf("Expected no enclosure, got %s", second.EnclosureURL)
	}
}

func TestParseTorrentExtensions(t *testing.T) {
	rssData := `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
  <channel>
    <title>Mikan Project</title>
    <item>
      <guid isPermaLink="false">[Group] Show - 01 [1080p]</guid>
      <link>https://mikanani.me/Home/Episode/0123456789abcdef0123456789abcdef01234567</link>
      <title>[Group] Show - 01 [1080p]</title>
      <description>[Group] Show - 01 [1080p][350.5 MB]</description>
      <torrent xmlns="https://mikanani.me/0.1/">
        <link>https://mikanani.me/Home/Episode/0123456789abcdef0123456789abcdef01234567</link>
        <contentLength>367525888</contentLength>
        <pubDate>2023-10-01T12:34:56.789</pubDate>
      </torrent>
      <enclosure type="application/x-bittorrent" length="367525888" url="https://mikanani.me/Download/20231001/0123.torrent"/>
    </item>
    <item>
      <title>Torrent DB item</title>
      <persistentlink>https://torrentdb.net/download/abc</persistentlink>
      <torrent>
        <infoHash>%AB%CD</infoHash>
      </torrent>
    </item>
  </channel>
</rss>`

	doc, err := NewParser().Run(rssData)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(doc.Items))
	}

	mikan := doc.Items[0].Torrent
	if mikan.ContentLength != "367525888" {
		t.Errorf("Expected contentLength, got: %q", mikan.ContentLength)
	}
	if mikan.PubDate != "2023-10-01T12:34:56.789" {
		t.Errorf("Expected torrent pubDate, got: %q", mikan.PubDate)
	}
	if mikan.PublishedAt == nil {
		t.Fatal("Expected torrent pubDate to be parsed")
	}
	if mikan.PublishedAt.Year() != 2023 || mikan.PublishedAt.Month() != time.October {
		t.Errorf("Unexpected torrent pubDate: %v", mikan.PublishedAt)
	}

	other := doc.Items[1]
	if other.PersistentLink != "https://torrentdb.net/download/abc" {
		t.Errorf("Expected persistentlink, got: %q", other.PersistentLink)
	}
	if other.Torrent.InfoHash != "%AB%CD" {
		t.Errorf("Expected infoHash, got: %q", other.Torrent.InfoHash)
	}
}

func TestParseEmptyChannel(t *testing.T) {
	rssData := `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`

	doc, err := NewParser().Run(rssData)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(doc.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(doc.Items))
	}
}

func TestParseMalformed(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not xml", "this is not a feed"},
		{"truncated", `<?xml version="1.0"?><rss version="2.0"><channel><item><title>x`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser().Run(tc.body)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Expected *ParseError, got %T: %v", err, err)
			}
		})
	}
}
