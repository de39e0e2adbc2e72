// Package asset abstracts binary asset storage for notly.
//
// Two implementations of one interface are selected once at startup:
// FSStore for filesystem-capable runtimes (bytes copied under the app data
// directory, durable relative paths) and DataURLStore for sandboxed
// runtimes (transient data URLs, no durable path). Callers are written
// against the interface and never branch on the environment.
package asset

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Ref is the result of storing asset bytes: a session-valid URL and, in
// filesystem-capable runtimes, a durable relative path that survives
// restarts. RelativePath is empty in sandboxed mode.
type Ref struct {
	URL          string `json:"url"`
	RelativePath string `json:"relativePath,omitempty"`
}

// Asset categories, used as directory names under the asset root.
const (
	CategoryImages = "images"
	CategoryPDFs   = "pdfs"
	CategoryFiles  = "files"
)

// Store persists asset bytes and resolves durable references.
type Store interface {
	// Save stores bytes under the given category. filename is advisory;
	// implementations may derive their own storage name from it.
	Save(data []byte, filename, category string) (Ref, error)

	// Resolve maps a durable relative path to a URL valid for the current
	// session. Idempotent. Must succeed for any path previously returned
	// by Save on this installation.
	Resolve(relativePath string) (string, error)

	// ReadBytes returns the raw bytes behind a durable relative path.
	ReadBytes(relativePath string) ([]byte, error)

	// Delete removes the bytes behind a durable relative path.
	// Best-effort: failures are logged, not returned, because orphaned
	// files are a storage-hygiene issue, not a correctness issue.
	Delete(relativePath string)
}

// CategoryForMime maps a mime type to an asset category.
func CategoryForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryImages
	case mimeType == "application/pdf":
		return CategoryPDFs
	default:
		return CategoryFiles
	}
}

// ExtForMime returns a file extension (with dot) for a mime type,
// defaulting to ".bin" when nothing matches.
func ExtForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// FilenameFromURL derives a human-meaningful filename from the last path
// segment of a URL. Returns "" when no usable segment exists.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return ""
	}
	return name
}

// IsDataURL reports whether src is a base64 data URL.
func IsDataURL(src string) bool {
	return strings.HasPrefix(src, "data:")
}

// IsRemoteURL reports whether src points outside the local installation.
func IsRemoteURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// ParseDataURL decodes a base64 data URL into its bytes and mime type.
func ParseDataURL(src string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URL")
	}
	mimeType, _, _ := strings.Cut(meta, ";")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if !strings.Contains(meta, "base64") {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data URL: %w", err)
		}
		return []byte(decoded), mimeType, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	return data, mimeType, nil
}

// EncodeDataURL encodes bytes as a base64 data URL.
func EncodeDataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
