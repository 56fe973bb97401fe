package tasks

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/torrent"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run returns the torrents that pass every filter of feedConfig, along with
// the reasons the others were dropped.
func (f *Filterer) Run(torrents []torrent.Torrent, feedConfig *cfg.FeedConfig) ([]torrent.Torrent, []string) {
	if len(feedConfig.Filters) == 0 {
		return torrents, nil
	}

	kept := make([]torrent.Torrent, 0, len(torrents))
	var reasons []string
	for _, t := range torrents {
		if isFiltered, reason := f.applyFilters(t, feedConfig.Filters); isFiltered {
			reasons = append(reasons, reason)
			continue
		}
		kept = append(kept, t)
	}

	return kept, reasons
}

func (f *Filterer) applyFilters(t torrent.Torrent, filters []cfg.FeedFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(t, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(t torrent.Torrent, field string) string {
	switch field {
	case "name":
		return t.Name
	case "link":
		return t.Link
	case "url":
		return t.URL
	case "id":
		return t.ID
	case "hash":
		return t.Hash
	default:
		return ""
	}
}
