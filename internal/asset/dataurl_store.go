package asset

import (
	"fmt"
	"mime"
	"path/filepath"
)

// DataURLStore is the sandboxed asset store. The runtime cannot write
// files, so Save encodes bytes as a transient data URL and no durable
// relative path is issued. Resolve and ReadBytes always fail: a sandboxed
// installation has no durable paths of its own.
type DataURLStore struct{}

// NewDataURLStore creates a sandboxed asset store.
func NewDataURLStore() *DataURLStore {
	return &DataURLStore{}
}

// Save encodes the bytes as a data URL. RelativePath is left empty.
func (s *DataURLStore) Save(data []byte, filename, category string) (Ref, error) {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	return Ref{URL: EncodeDataURL(data, mimeType)}, nil
}

// Resolve fails: no durable paths exist in sandboxed mode.
func (s *DataURLStore) Resolve(relativePath string) (string, error) {
	return "", fmt.Errorf("no durable asset paths in sandboxed mode: %s", relativePath)
}

// ReadBytes fails: no durable paths exist in sandboxed mode.
func (s *DataURLStore) ReadBytes(relativePath string) ([]byte, error) {
	return nil, fmt.Errorf("no durable asset paths in sandboxed mode: %s", relativePath)
}

// Delete is a no-op: data URLs vanish with the session.
func (s *DataURLStore) Delete(relativePath string) {}

var _ Store = (*DataURLStore)(nil)
