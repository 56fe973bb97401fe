package torrent

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStore persists downloaded .torrent files as <dir>/<hash>.torrent.
type FileStore struct {
	fs  afero.Fs
	dir string
}

func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

// Path returns where the file for hash is stored.
func (s *FileStore) Path(hash string) string {
	return filepath.Join(s.dir, hash+".torrent")
}

// Write stores data for hash, replacing an existing file.
func (s *FileStore) Write(hash string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create torrents directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(hash), data, 0o644); err != nil {
		return fmt.Errorf("failed to write torrent file: %w", err)
	}
	return nil
}

// Read returns the stored file for hash.
func (s *FileStore) Read(hash string) ([]byte, error) {
	return afero.ReadFile(s.fs, s.Path(hash))
}
