package adapter

import (
	"context"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/lysyi3m/tracker-rss/app/feed"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

type rule struct {
	extract     extractFunc
	limit       int
	limitHosts  []string
	noCacheBust bool
}

var rules = map[Kind]rule{
	KindDefault:      {extract: extractDefault, limit: 10, limitHosts: legacyResolveHosts},
	KindPuTao:        {extract: extractPuTao},
	KindFileList:     {extract: extractFileList},
	KindBeyondHD:     {extract: extractBeyondHD},
	KindUnit3D2:      {extract: extractUnit3D2},
	KindUnit3D:       {extract: extractUnit3D},
	KindTorrentDB:    {extract: extractTorrentDB},
	KindUHDBits:      {extract: extractUHDBits},
	KindEmpornium:    {extract: extractEmpornium},
	KindSkyeySnow:    {extract: extractSkyeySnow},
	KindHDBits:       {extract: extractHDBits},
	KindHDTorrents:   {extract: extractHDTorrents},
	KindHDCity:       {extract: extractHDCity},
	KindIPTorrents:   {extract: extractIPTorrents},
	KindMikan:        {extract: extractMikan},
	KindLearnFlakes:  {extract: extractLearnFlakes, noCacheBust: true},
	KindAvistaZ:      {extract: extractAvistaZ},
	KindTorrentLeech: {extract: extractTorrentLeech},
	KindFSM:          {extract: extractFSM},
	KindHappyFappy:   {extract: extractHappyFappy},
}

// Feeds of these trackers return very long item lists and expose no usable
// hash, so the default adapter caps them and resolves by download.
var legacyResolveHosts = []string{"chdbits", "totheglory"}

const learnFlakesMarker = "learnflakes"

var (
	reBracketSize  = regexp.MustCompile(`\[(\d+(?:\.\d+)?) ([KMGT]B)\]`)
	reLabeledSize  = regexp.MustCompile(`Size: (\d+(?:\.\d+)?) ([KMGT]B)`)
	reBinarySize   = regexp.MustCompile(`(\d+(?:\.\d+)?) ([KMGT]iB)`)
	reDecimalSize  = regexp.MustCompile(`(\d+(?:\.\d+)?) ([KMGT]B)`)
	reLooseSize    = regexp.MustCompile(`(\d+(?:\.\d+)?) ?([KMGT]i?B)`)
	reFlakesSize   = regexp.MustCompile(`(\d+\.\d+) ([KMGT]i?B)`)
	reUnit3D2Size  = regexp.MustCompile(`Size</strong>: (\d+(?:\.\d+)?).([KMGT]iB)`)
	reUnit3DSize   = regexp.MustCompile(`Size</strong>: (\d+(?:\.\d+)?) ([KMGT]iB)`)
	reAvistaZSize  = regexp.MustCompile(`Size</strong>: (\d+(?:\.\d+)?) ([KMGT]i?B)`)
	reFileListLink = regexp.MustCompile(`https://filelist\.io/download\.php\?id=\d+`)
	reQueryID      = regexp.MustCompile(`id=(\d+)`)
	reDotID        = regexp.MustCompile(`\.(\d+)`)
	reDownloadID   = regexp.MustCompile(`download/(\d+)\.`)
	reDownloadTail = regexp.MustCompile(`(\d+)\..*`)
	reTorrentsID   = regexp.MustCompile(`torrents/(\d+)`)
	reTorrentID    = regexp.MustCompile(`torrent/(\d+)`)
	reSlashID      = regexp.MustCompile(`/(\d+)/`)
	reTidParam     = regexp.MustCompile(`&tid=(\d+)`)
	reHashParam    = regexp.MustCompile(`hash=(.*?)&`)
	reGUIDSuffix   = regexp.MustCompile(`-(.*)`)
)

func extractDefault(ctx context.Context, r HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, t.Size, err = enclosure(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "?id=")
	t.Hash = item.GUID
	t.PubTime = pubTime(item)

	for _, h := range legacyResolveHosts {
		if strings.Contains(t.URL, h) {
			if err := resolve(ctx, r, &t, torrent.PrefixCHD, false); err != nil {
				return t, err
			}
			break
		}
	}

	if t.Hash == "" {
		return t, missing("guid")
	}
	return t, nil
}

func extractPuTao(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Size, err = sizeFrom("title.size", reBracketSize, item.Title, torrent.ParseDecimalSize); err != nil {
		return t, err
	}
	if t.URL, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.Link = t.URL
	if idx := strings.Index(t.URL, "&passkey="); idx >= 0 {
		t.Link = t.URL[:idx]
	}
	t.ID = after(t.Link, "?id=")
	if t.Hash, err = required("guid", item.GUID); err != nil {
		return t, err
	}
	t.PubTime = pubTime(item)
	return t, nil
}

func extractFileList(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Size, err = sizeFrom("description.size", reLabeledSize, item.Description, torrent.ParseDecimalSize); err != nil {
		return t, err
	}
	item.Title = strings.Replace(item.Title, "\n", " ", 1)
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	download := reFileListLink.FindString(item.Link)
	if download == "" {
		return t, missing("link")
	}
	t.Link = strings.Replace(download, "download", "details", 1)
	t.ID = after(t.Link, "?id=")
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
	t.URL = item.Link
	return t, nil
}

func extractBeyondHD(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Size, err = sizeFrom("title.size", reBinarySize, item.Title, torrent.ParseBinarySize); err != nil {
		return t, err
	}
	item.Title, _, _ = strings.Cut(item.Title, "\n")
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("guid", item.GUID); err != nil {
		return t, err
	}
	if t.ID, err = submatch("guid.id", reDotID, t.Link); err != nil {
		return t, err
	}
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
	if t.URL, err = required("link", item.Link); err != nil {
		return t, err
	}
	return t, nil
}

func extractUnit3D2(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Size, err = sizeFrom("description.size", reUnit3D2Size, item.Description, torrent.ParseBinarySize); err != nil {
		return t, err
	}
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.ID, err = submatch("link.id", reDownloadID, t.URL); err != nil {
		return t, err
	}
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
	t.Link = reDownloadTail.ReplaceAllString(strings.Replace(t.URL, "download/", "", 1), "$1")
	return t, nil
}

func extractUnit3D(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Size, err = sizeFrom("description.size", reUnit3DSize, item.Description, torrent.ParseBinarySize); err != nil {
		return t, err
	}
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.ID, err = submatch("link.id", reTorrentsID, t.Link); err != nil {
		return t, err
	}
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
	if t.URL, err = required("enclosure", item.EnclosureURL); err != nil {
		return t, err
	}
	return t, nil
}

func extractTorrentDB(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Size, err = sizeFrom("description.size", reDecimalSize, item.Description, torrent.ParseDecimalSize); err != nil {
		return t, err
	}
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("comments", item.Comments); err != nil {
		return t, err
	}
	if t.Hash, err = required("guid", item.GUID); err != nil {
		return t, err
	}
	t.ID = t.Hash
	if t.URL, err = required("persistentlink", item.PersistentLink); err != nil {
		return t, err
	}
	return t, nil
}

func extractUHDBits(ctx context.Context, r HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("comments", item.Comments); err != nil {
		return t, err
	}
	if t.URL, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.ID, err = submatch("link.id", reQueryID, t.URL); err != nil {
		return t, err
	}
	if err := resolve(ctx, r, &t, torrent.PrefixUHD, true); err != nil {
		return t, err
	}
	return t, nil
}

func extractEmpornium(ctx context.Context, r HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "?id=")
	if t.URL, err = required("enclosure", item.EnclosureURL); err != nil {
		return t, err
	}
	if err := resolve(ctx, r, &t, torrent.PrefixEMP, true); err != nil {
		return t, err
	}
	t.PubTime = pubTime(item)
	return t, nil
}

func extractSkyeySnow(ctx context.Context, r HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, t.Size, err = enclosure(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "?id=")
	t.PubTime = pubTime(item)

	if !strings.Contains(t.URL, "skyey") {
		if t.Hash, err = required("guid", item.GUID); err != nil {
			return t, err
		}
		return t, nil
	}
	if err := resolve(ctx, r, &t, torrent.PrefixSkyey, false); err != nil {
		return t, err
	}
	return t, nil
}

func extractHDBits(ctx context.Context, r HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.ID, err = submatch("link.id", reQueryID, t.URL); err != nil {
		return t, err
	}
	t.Link = "https://hdbits.org/details.php?id=" + t.ID + "&source=browse"
	t.PubTime = pubTime(item)

	if !strings.Contains(t.URL, "hdbits") {
		t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
		return t, nil
	}
	if err := resolve(ctx, r, &t, torrent.PrefixHDBits, true); err != nil {
		return t, err
	}
	return t, nil
}

func extractHDTorrents(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.URL = t.Link
	if t.Hash, err = submatch("link.hash", reHashParam, t.Link); err != nil {
		return t, err
	}
	t.ID = t.Hash
	t.PubTime = pubTime(item)
	return t, nil
}

func extractHDCity(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, t.Size, err = enclosure(item); err != nil {
		return t, err
	}
	link, err := required("link", item.Link)
	if err != nil {
		return t, err
	}
	t.ID = after(link, "?t=")
	t.Link = "https://hdcity.leniter.org/t-" + t.ID
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
	return t, nil
}

func extractIPTorrents(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	sizeText, _, _ := strings.Cut(item.Description, ";")
	if t.Size, err = sizeFrom("description.size", reLooseSize, sizeText, torrent.ParseDecimalSize); err != nil {
		return t, err
	}
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.URL = t.Link
	if t.ID, err = submatch("link.id", reSlashID, t.Link); err != nil {
		return t, err
	}
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarkerIPT, t.ID)
	t.PubTime = pubTime(item)
	return t, nil
}

func extractMikan(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, t.Size, err = enclosure(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "Episode/")
	t.Hash = t.ID
	if item.Torrent.PublishedAt != nil {
		t.PubTime = item.Torrent.PublishedAt.Unix()
	}
	return t, nil
}

func extractLearnFlakes(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if reFlakesSize.MatchString(item.Description) {
		if t.Size, err = sizeFrom("description.size", reFlakesSize, item.Description, torrent.ParseDecimalSize); err != nil {
			return t, err
		}
	}
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.ID, err = submatch("link.tid", reTidParam, t.Link); err != nil {
		return t, err
	}
	if t.URL, err = required("guid", item.GUID); err != nil {
		return t, err
	}
	t.Hash = torrent.Placeholder(learnFlakesMarker, t.ID)
	t.PubTime = pubTime(item)
	return t, nil
}

func extractAvistaZ(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Size, err = sizeFrom("description.size", reAvistaZSize, item.Description, torrent.ParseBinarySize); err != nil {
		return t, err
	}
	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.ID, err = submatch("link.id", reTorrentID, t.Link); err != nil {
		return t, err
	}
	if t.URL, err = required("enclosure", item.EnclosureURL); err != nil {
		return t, err
	}
	if t.Hash, err = submatch("guid.hash", reGUIDSuffix, item.GUID); err != nil {
		return t, err
	}
	t.PubTime = pubTime(item)
	return t, nil
}

func extractTorrentLeech(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, err = required("link", item.Link); err != nil {
		return t, err
	}
	if t.Link, err = required("guid", item.GUID); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "torrent/")
	t.Hash = torrent.Placeholder(torrent.PlaceholderMarker, t.ID)
	t.PubTime = pubTime(item)
	return t, nil
}

func extractFSM(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	if t.URL, t.Size, err = enclosure(item); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "?tid=")
	if t.Hash, err = required("guid", item.GUID); err != nil {
		return t, err
	}
	return t, nil
}

func extractHappyFappy(_ context.Context, _ HashResolver, _ string, item feed.Item) (torrent.Torrent, error) {
	var t torrent.Torrent
	var err error

	if t.Name, err = name(item); err != nil {
		return t, err
	}
	length, err := required("torrent.contentLength", item.Torrent.ContentLength)
	if err != nil {
		return t, err
	}
	if t.Size, err = parseLength("torrent.contentLength", length); err != nil {
		return t, err
	}
	if t.Link, err = required("link", item.Link); err != nil {
		return t, err
	}
	t.ID = after(t.Link, "?id=")
	if t.URL, err = required("enclosure", item.EnclosureURL); err != nil {
		return t, err
	}
	raw, err := required("torrent.infoHash", item.Torrent.InfoHash)
	if err != nil {
		return t, err
	}
	if t.Hash, err = infoHashHex(raw); err != nil {
		return t, invalid("torrent.infoHash", err)
	}
	return t, nil
}

// infoHashHex converts a percent-escaped binary infohash to hex. Values that
// are already hex are kept.
func infoHashHex(raw string) (string, error) {
	if torrent.IsInfoHash(raw) {
		return strings.ToLower(raw), nil
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString([]byte(decoded)), nil
}
