package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FSStore stores asset bytes under a root directory, one subdirectory per
// category. Storage names are content hashes, so identical bytes dedupe to
// one file and names never collide.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem asset store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

// Save copies bytes into the category directory and returns both a
// resolvable file URL and the durable relative path.
func (s *FSStore) Save(data []byte, filename, category string) (Ref, error) {
	if category == "" {
		category = CategoryFiles
	}
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Ref{}, fmt.Errorf("create asset category dir: %w", err)
	}

	name := storageName(data, filename)
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err != nil {
		// Same content hashes to the same name; only write when new.
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return Ref{}, fmt.Errorf("write asset %s: %w", name, err)
		}
	}

	rel := category + "/" + name
	return Ref{URL: fileURL(dest), RelativePath: rel}, nil
}

// Resolve maps a durable relative path to a file URL for this session.
func (s *FSStore) Resolve(relativePath string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(relativePath))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("resolve asset %s: %w", relativePath, err)
	}
	return fileURL(p), nil
}

// ReadBytes returns the raw bytes behind a durable relative path.
func (s *FSStore) ReadBytes(relativePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relativePath)))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", relativePath, err)
	}
	return data, nil
}

// Delete removes the file behind a durable relative path. Best-effort.
func (s *FSStore) Delete(relativePath string) {
	p := filepath.Join(s.root, filepath.FromSlash(relativePath))
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not delete asset file", "path", relativePath, "error", err)
	}
}

// storageName builds a collision-free storage name: the content hash plus
// the original extension.
func storageName(data []byte, filename string) string {
	sum := sha256.Sum256(data)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return hex.EncodeToString(sum[:])[:16] + ext
}

// fileURL converts an absolute or relative local path to a file URL.
func fileURL(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// ReadFileURL reads the bytes behind a file:// URL.
func ReadFileURL(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return nil, fmt.Errorf("not a file URL: %s", rawURL)
	}
	data, err := os.ReadFile(filepath.FromSlash(u.Path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return data, nil
}

var _ Store = (*FSStore)(nil)
