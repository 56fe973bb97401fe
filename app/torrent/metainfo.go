package torrent

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/IncSW/go-bencode"
)

// Metainfo is the part of a .torrent file the resolver needs.
type Metainfo struct {
	Name string
	Size int64
	// Hash is hex(md5(sha1(bencode(info)))).
	Hash string
}

// ParseMetainfo decodes a .torrent file and computes its identity.
func ParseMetainfo(content []byte) (*Metainfo, error) {
	if len(content) == 0 {
		return nil, errors.New("empty content")
	}

	decoded, err := bencode.Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal torrent: %w", err)
	}

	torrentMap, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid torrent structure")
	}

	infoDict, ok := torrentMap["info"].(map[string]interface{})
	if !ok {
		return nil, errors.New("info dictionary not found")
	}

	size, err := infoSize(infoDict)
	if err != nil {
		return nil, err
	}

	infoBencoded, err := bencode.Marshal(infoDict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal info dict: %w", err)
	}

	digest := sha1.Sum(infoBencoded)
	identity := md5.Sum(digest[:])

	return &Metainfo{
		Name: NormalizeName(bencodeString(infoDict["name"])),
		Size: size,
		Hash: hex.EncodeToString(identity[:]),
	}, nil
}

// infoSize returns info.length for single file torrents, otherwise the sum
// of files[].length.
func infoSize(info map[string]interface{}) (int64, error) {
	if length, ok := info["length"].(int64); ok && length > 0 {
		return length, nil
	}

	files, ok := info["files"].([]interface{})
	if !ok {
		if _, hasLength := info["length"]; hasLength {
			return 0, nil
		}
		return 0, errors.New("info has neither length nor files")
	}

	var total int64
	for i, f := range files {
		file, ok := f.(map[string]interface{})
		if !ok {
			return 0, fmt.Errorf("invalid file entry %d", i)
		}
		length, ok := file["length"].(int64)
		if !ok {
			return 0, fmt.Errorf("file entry %d has no length", i)
		}
		total += length
	}
	return total, nil
}

func bencodeString(v interface{}) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	default:
		return ""
	}
}
