package cfg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site holds credentials injected into requests for one tracker host.
type Site struct {
	Cookie    string `yaml:"cookie"`
	UserAgent string `yaml:"user_agent"`
}

// Sites maps a tracker host (as in URL.Host) to its credentials.
type Sites map[string]Site

// LoadSites reads the sites file. A missing file yields an empty table.
func LoadSites(path string) (Sites, error) {
	if path == "" {
		return Sites{}, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Sites{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var raw struct {
		Sites map[string]Site `yaml:"sites"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sites := make(Sites, len(raw.Sites))
	for host, site := range raw.Sites {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			return nil, fmt.Errorf("site with empty host")
		}
		sites[host] = site
	}
	return sites, nil
}

// Lookup returns the credentials configured for host.
func (s Sites) Lookup(host string) (Site, bool) {
	site, ok := s[strings.ToLower(host)]
	return site, ok
}
