// Package bundle implements the portable project archive: a ZIP container
// holding a manifest, the project, one JSON file per board, the raw bytes
// of every asset referenced by a board snapshot, and the cards those
// snapshots embed.
//
// While archived, snapshot asset references point at archive members via
// bundle://assets/<name> pointers. Export extracts asset bytes out of live
// snapshots and rewrites references to those pointers; import materializes
// the bytes back through the asset store and rewrites the pointers to
// fresh live references, assigning new identifiers to every entity so an
// import never collides with existing data.
package bundle

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/noureldenadel/notly/internal/errors"
)

// FormatVersion is the bundle format this implementation reads and
// writes. Import requires an exact match; no cross-version compatibility
// is assumed.
const FormatVersion = "1.0"

// AssetPointerPrefix marks an in-archive asset reference inside a
// snapshot.
const AssetPointerPrefix = "bundle://assets/"

// Archive member names.
const (
	manifestMember = "manifest.json"
	projectMember  = "project.json"
	boardsPrefix   = "boards/"
	assetsPrefix   = "assets/"
	cardsMember    = "cards.json"
	filesMember    = "files.json"
)

// Guards against zip bombs when reading archive members.
const maxMemberSize = 100 * 1024 * 1024

// Manifest describes a bundle archive. It is always the first member
// consulted on import; nothing else is read until the version checks out.
type Manifest struct {
	Version     string `json:"version"`
	ExportedAt  int64  `json:"exportedAt"`
	AppVersion  string `json:"appVersion"`
	ProjectName string `json:"projectName"`
	ProjectID   string `json:"projectId"`
	BoardCount  int    `json:"boardCount"`
	AssetCount  int    `json:"assetCount"`
}

// AssetPointer builds the in-archive reference for an asset name.
func AssetPointer(name string) string {
	return AssetPointerPrefix + name
}

// IsAssetPointer reports whether src is an in-archive asset reference.
func IsAssetPointer(src string) bool {
	return strings.HasPrefix(src, AssetPointerPrefix)
}

// writeZipFile writes a single member to a zip archive.
func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// readZipFile reads one member's bytes, capped at maxMemberSize.
func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, maxMemberSize))
}

// findZipFile locates a member by exact name, or nil.
func findZipFile(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// requireZipFile reads a member whose absence makes the bundle invalid.
func requireZipFile(r *zip.Reader, name string) ([]byte, error) {
	f := findZipFile(r, name)
	if f == nil {
		return nil, errors.ErrBundleInvalid(name, "missing from archive")
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, errors.ErrBundleInvalid(name, "unreadable").WithCause(err)
	}
	return data, nil
}
