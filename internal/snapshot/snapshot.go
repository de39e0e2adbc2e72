// Package snapshot converts between the canvas engine's serialized
// document strings and a structural form the bundle pipeline can rewrite.
//
// A snapshot is a JSON object whose "store" member maps record ids to
// records. Records carry a typeName discriminator: asset records hold a
// source URL (props.src) and, in filesystem-capable runtimes, a durable
// relative path in their meta; shape records may reference a card through
// props.cardId. All rewriting here is structural: records are parsed,
// only the known reference fields are mutated, and the document is
// reserialized. Unknown records and fields pass through untouched.
package snapshot

import (
	"encoding/json"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/noureldenadel/notly/internal/errors"
)

// Document is a parsed snapshot.
type Document struct {
	data map[string]any
}

// AssetRef is an asset reference embedded in a snapshot record.
type AssetRef struct {
	// RecordID is the store key of the asset record.
	RecordID string
	// Src is the runtime-resolved source URL. May be a file URL, a data
	// URL, a remote http URL, or a bundle pointer while archived.
	Src string
	// RelativePath is the durable pointer carried in the record meta,
	// empty when the asset has no durable path.
	RelativePath string
}

// AssetUpdate is the replacement applied to an asset record by Rewrite.
type AssetUpdate struct {
	Src string
	// RelativePath replaces the durable pointer in the record meta;
	// empty removes it.
	RelativePath string
}

// Decode parses a snapshot string. Fails with a SNAPSHOT_MALFORMED error
// when the string is not a JSON object.
func Decode(s string) (*Document, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, errors.ErrSnapshotMalformed("").WithCause(err)
	}
	return &Document{data: data}, nil
}

// Encode serializes the document back to a snapshot string.
func (d *Document) Encode() (string, error) {
	out, err := json.Marshal(d.data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// records returns the store records, or nil when the snapshot has none.
func (d *Document) records() map[string]any {
	store, _ := d.data["store"].(map[string]any)
	return store
}

// recordField reads a nested string field from a record.
func recordField(rec map[string]any, section, key string) string {
	m, _ := rec[section].(map[string]any)
	v, _ := m[key].(string)
	return v
}

// AssetRefs returns every asset reference in the document, in sorted
// record order.
func (d *Document) AssetRefs() []AssetRef {
	var refs []AssetRef
	for id, raw := range d.records() {
		rec, ok := raw.(map[string]any)
		if !ok || rec["typeName"] != "asset" {
			continue
		}
		refs = append(refs, AssetRef{
			RecordID:     id,
			Src:          recordField(rec, "props", "src"),
			RelativePath: recordField(rec, "meta", "relativePath"),
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].RecordID < refs[j].RecordID })
	return refs
}

// CardIDs returns the unique card ids referenced by shape records, sorted.
func (d *Document) CardIDs() []string {
	seen := make(map[string]bool)
	for _, raw := range d.records() {
		rec, ok := raw.(map[string]any)
		if !ok || rec["typeName"] != "shape" {
			continue
		}
		if id := recordField(rec, "props", "cardId"); id != "" {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RewriteAssets applies replace to every asset record. The callback
// returns the update and true to mutate a record, or false to leave it
// untouched. Reports whether anything changed.
func (d *Document) RewriteAssets(replace func(ref AssetRef) (AssetUpdate, bool)) bool {
	changed := false
	for id, raw := range d.records() {
		rec, ok := raw.(map[string]any)
		if !ok || rec["typeName"] != "asset" {
			continue
		}
		ref := AssetRef{
			RecordID:     id,
			Src:          recordField(rec, "props", "src"),
			RelativePath: recordField(rec, "meta", "relativePath"),
		}
		update, ok := replace(ref)
		if !ok {
			continue
		}

		props, ok := rec["props"].(map[string]any)
		if !ok {
			props = make(map[string]any)
			rec["props"] = props
		}
		props["src"] = update.Src

		if update.RelativePath != "" {
			meta, ok := rec["meta"].(map[string]any)
			if !ok {
				meta = make(map[string]any)
				rec["meta"] = meta
			}
			meta["relativePath"] = update.RelativePath
		} else if meta, ok := rec["meta"].(map[string]any); ok {
			delete(meta, "relativePath")
		}
		changed = true
	}
	return changed
}

// RewriteCardIDs replaces card references per the mapping. Ids not in the
// mapping are left as-is. Reports whether anything changed.
func (d *Document) RewriteCardIDs(mapping map[string]string) bool {
	changed := false
	for _, raw := range d.records() {
		rec, ok := raw.(map[string]any)
		if !ok || rec["typeName"] != "shape" {
			continue
		}
		props, ok := rec["props"].(map[string]any)
		if !ok {
			continue
		}
		old, _ := props["cardId"].(string)
		if newID, ok := mapping[old]; ok && newID != old {
			props["cardId"] = newID
			changed = true
		}
	}
	return changed
}

// ShapeCount returns the number of shape records, for structural checks.
func (d *Document) ShapeCount() int {
	n := 0
	for _, raw := range d.records() {
		if rec, ok := raw.(map[string]any); ok && rec["typeName"] == "shape" {
			n++
		}
	}
	return n
}

// ScanCardIDs extracts referenced card ids from a raw snapshot string
// without a full structural parse. Returns nil for invalid JSON.
func ScanCardIDs(s string) []string {
	if !gjson.Valid(s) {
		return nil
	}
	seen := make(map[string]bool)
	gjson.Get(s, "store").ForEach(func(_, rec gjson.Result) bool {
		if rec.Get("typeName").String() == "shape" {
			if id := rec.Get("props.cardId").String(); id != "" {
				seen[id] = true
			}
		}
		return true
	})
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasAssetRecords reports whether a raw snapshot string contains any asset
// records, without a full structural parse.
func HasAssetRecords(s string) bool {
	if !gjson.Valid(s) {
		return false
	}
	found := false
	gjson.Get(s, "store").ForEach(func(_, rec gjson.Result) bool {
		if rec.Get("typeName").String() == "asset" {
			found = true
			return false
		}
		return true
	})
	return found
}
