package feed

import (
	"time"
)

// Document is a parsed RSS channel.
type Document struct {
	Title string
	Link  string
	Items []Item
}

// Item is one channel item with the standard RSS fields plus the tracker
// extension elements some feeds carry.
type Item struct {
	Title           string
	Link            string
	Description     string
	Comments        string
	GUID            string
	EnclosureURL    string
	EnclosureLength string
	PubDate         string
	PublishedAt     *time.Time

	// <persistentlink> (TorrentDB)
	PersistentLink string
	// <torrent> block (Mikan, HappyFappy)
	Torrent TorrentInfo
}

// TorrentInfo holds the children of an item's <torrent> element.
type TorrentInfo struct {
	Link          string
	ContentLength string
	PubDate       string
	PublishedAt   *time.Time
	InfoHash      string
}
