package feed

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/net/html/charset"
)

type Parser struct {
	rssParser *rss.Parser
}

func NewParser() *Parser {
	return &Parser{
		rssParser: &rss.Parser{},
	}
}

// extensionFeed picks up item elements gofeed does not model.
type extensionFeed struct {
	Items []extensionItem `xml:"channel>item"`
}

type extensionItem struct {
	PersistentLink string `xml:"persistentlink"`
	Torrent        struct {
		Link          string `xml:"link"`
		ContentLength string `xml:"contentLength"`
		PubDate       string `xml:"pubDate"`
		InfoHash      string `xml:"infoHash"`
	} `xml:"torrent"`
}

func (p *Parser) Run(body string) (*Document, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &ParseError{Reason: "empty body"}
	}

	channel, err := p.rssParser.Parse(strings.NewReader(body))
	if err != nil {
		return nil, &ParseError{Reason: "malformed rss", Err: err}
	}

	extensions, err := decodeExtensions(body)
	if err != nil {
		return nil, &ParseError{Reason: "malformed rss", Err: err}
	}

	doc := &Document{
		Title: channel.Title,
		Link:  channel.Link,
		Items: make([]Item, 0, len(channel.Items)),
	}

	for i, raw := range channel.Items {
		if raw == nil {
			continue
		}
		item := normalizeItem(raw)
		if i < len(extensions.Items) {
			applyExtensions(&item, extensions.Items[i])
		}
		doc.Items = append(doc.Items, item)
	}

	return doc, nil
}

func decodeExtensions(body string) (*extensionFeed, error) {
	decoder := xml.NewDecoder(strings.NewReader(body))
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	var feed extensionFeed
	if err := decoder.Decode(&feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func normalizeItem(raw *rss.Item) Item {
	item := Item{
		Title:       strings.TrimSpace(raw.Title),
		Link:        strings.TrimSpace(raw.Link),
		Description: raw.Description,
		Comments:    strings.TrimSpace(raw.Comments),
		PubDate:     strings.TrimSpace(raw.PubDate),
	}

	if raw.GUID != nil {
		item.GUID = strings.TrimSpace(raw.GUID.Value)
	}

	if raw.Enclosure != nil {
		item.EnclosureURL = strings.TrimSpace(raw.Enclosure.URL)
		item.EnclosureLength = strings.TrimSpace(raw.Enclosure.Length)
	}

	if raw.PubDateParsed != nil {
		published := *raw.PubDateParsed
		item.PublishedAt = &published
	} else {
		item.PublishedAt = parseDate(item.PubDate)
	}

	return item
}

func applyExtensions(item *Item, ext extensionItem) {
	item.PersistentLink = strings.TrimSpace(ext.PersistentLink)
	item.Torrent = TorrentInfo{
		Link:          strings.TrimSpace(ext.Torrent.Link),
		ContentLength: strings.TrimSpace(ext.Torrent.ContentLength),
		PubDate:       strings.TrimSpace(ext.Torrent.PubDate),
		InfoHash:      strings.TrimSpace(ext.Torrent.InfoHash),
	}
	item.Torrent.PublishedAt = parseDate(item.Torrent.PubDate)
}

// parseDate accepts the loose date formats trackers emit. Dates without a
// zone are read in time.Local.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := dateparse.ParseLocal(value)
	if err != nil {
		return nil
	}
	return &parsed
}
