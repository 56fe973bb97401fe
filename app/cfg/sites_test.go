package cfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSites(t *testing.T) {
	tempDir := t.TempDir()

	content := `
sites:
  PT.SoulVoice.Club:
    cookie: "c_secure_uid=1; c_secure_pass=abc"
  hdbits.org:
    user_agent: "Custom/1.0"
`
	path := filepath.Join(tempDir, "sites.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	sites, err := LoadSites(path)
	if err != nil {
		t.Fatal(err)
	}

	site, ok := sites.Lookup("pt.soulvoice.club")
	if !ok {
		t.Fatal("Expected site for pt.soulvoice.club")
	}
	if site.Cookie != "c_secure_uid=1; c_secure_pass=abc" {
		t.Errorf("Expected cookie to be loaded, got '%s'", site.Cookie)
	}

	site, ok = sites.Lookup("HDBITS.org")
	if !ok {
		t.Fatal("Expected case-insensitive lookup for hdbits.org")
	}
	if site.UserAgent != "Custom/1.0" {
		t.Errorf("Expected user agent 'Custom/1.0', got '%s'", site.UserAgent)
	}

	if _, ok := sites.Lookup("example.com"); ok {
		t.Error("Expected no site for example.com")
	}
}

func TestLoadSitesMissingFile(t *testing.T) {
	sites, err := LoadSites(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 0 {
		t.Errorf("Expected empty sites, got %d", len(sites))
	}
}

func TestLoadSitesInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yml")
	if err := os.WriteFile(path, []byte("sites: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSites(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
