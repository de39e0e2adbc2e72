package snapshot

import (
	"log/slog"

	"github.com/noureldenadel/notly/internal/asset"
)

// Resolver rewrites snapshot asset sources against an asset store, so a
// snapshot persisted with durable relative paths loads with sources the
// canvas runtime can display.
type Resolver struct {
	store asset.Store
}

func NewResolver(store asset.Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveAssets rewrites each asset record's source from its durable
// relative path. Records without a relative path, and records whose path
// no longer resolves, keep their current source; failures are logged and
// skipped rather than failing the load.
func (r *Resolver) ResolveAssets(doc *Document) bool {
	return doc.RewriteAssets(func(ref AssetRef) (AssetUpdate, bool) {
		if ref.RelativePath == "" {
			return AssetUpdate{}, false
		}
		src, err := r.store.Resolve(ref.RelativePath)
		if err != nil {
			slog.Warn("asset did not resolve, keeping stored source",
				"record", ref.RecordID,
				"relativePath", ref.RelativePath,
				"error", err)
			return AssetUpdate{}, false
		}
		if src == ref.Src {
			return AssetUpdate{}, false
		}
		return AssetUpdate{Src: src, RelativePath: ref.RelativePath}, true
	})
}
