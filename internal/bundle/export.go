package bundle

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"path/filepath"

	"github.com/noureldenadel/notly/internal/asset"
	"github.com/noureldenadel/notly/internal/errors"
	"github.com/noureldenadel/notly/internal/model"
	"github.com/noureldenadel/notly/internal/snapshot"
	"github.com/noureldenadel/notly/internal/storage"
)

// Exporter produces a self-contained archive for one project.
type Exporter struct {
	gateway    storage.Gateway
	assets     asset.Store
	appVersion string
}

func NewExporter(gateway storage.Gateway, assets asset.Store, appVersion string) *Exporter {
	return &Exporter{gateway: gateway, assets: assets, appVersion: appVersion}
}

// ExportToFile writes the project's bundle to path, creating parent
// directories as needed. No file is written when the export fails.
func (e *Exporter) ExportToFile(projectID, path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.ErrAssetIO(path).WithCause(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.ErrAssetIO(path).WithCause(err)
	}

	manifest, err := e.Export(projectID, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.ErrAssetIO(path).WithCause(cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return manifest, nil
}

// Export writes the project's bundle archive to w.
//
// Boards whose snapshot fails to parse export as if they had no snapshot.
// Assets that cannot be fetched are left referenced as-is and are not
// counted in the manifest. Both are logged, neither fails the export.
func (e *Exporter) Export(projectID string, w io.Writer) (*Manifest, error) {
	project, err := e.gateway.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.ErrProjectNotFound(projectID)
	}

	boards, err := e.gateway.GetBoards(projectID)
	if err != nil {
		return nil, err
	}

	ext := &extraction{
		assets:    e.assets,
		usedNames: make(map[string]string),
		relPaths:  make(map[string]string),
	}

	type boardEntry struct {
		board model.Board
		data  []byte
	}
	var entries []boardEntry
	cardIDs := make(map[string]bool)

	for _, b := range boards {
		out := *b
		out.ProjectID = "" // boards in the archive belong to the bundle, not a live project

		snap, err := e.gateway.LoadCanvasSnapshot(b.ID)
		if err != nil {
			return nil, err
		}
		if snap != "" {
			doc, derr := snapshot.Decode(snap)
			if derr != nil {
				slog.Warn("board snapshot is malformed, exporting board without it",
					"board", b.ID, "error", derr)
				out.Snapshot = ""
			} else {
				ext.extract(doc, b.ID)
				for _, id := range doc.CardIDs() {
					cardIDs[id] = true
				}
				encoded, eerr := doc.Encode()
				if eerr != nil {
					return nil, eerr
				}
				out.Snapshot = encoded
			}
		} else {
			out.Snapshot = ""
		}

		data, err := json.MarshalIndent(&out, "", "  ")
		if err != nil {
			return nil, err
		}
		entries = append(entries, boardEntry{board: out, data: data})
	}

	var cards []*model.Card
	for _, id := range sortedKeys(cardIDs) {
		card, err := e.gateway.GetCard(id)
		if err != nil {
			return nil, err
		}
		if card == nil {
			slog.Warn("snapshot references a card that no longer exists, skipping",
				"card", id, "project", projectID)
			continue
		}
		cards = append(cards, card)
	}

	manifest := &Manifest{
		Version:     FormatVersion,
		ExportedAt:  model.NowMillis(),
		AppVersion:  e.appVersion,
		ProjectName: project.Title,
		ProjectID:   project.ID,
		BoardCount:  len(entries),
		AssetCount:  len(ext.files),
	}

	zw := zip.NewWriter(w)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeZipFile(zw, manifestMember, manifestData); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	projectData, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeZipFile(zw, projectMember, projectData); err != nil {
		return nil, fmt.Errorf("write project: %w", err)
	}

	for _, entry := range entries {
		name := boardsPrefix + entry.board.ID + ".json"
		if err := writeZipFile(zw, name, entry.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	for _, af := range ext.files {
		if err := writeZipFile(zw, assetsPrefix+af.name, af.data); err != nil {
			return nil, fmt.Errorf("write asset %s: %w", af.name, err)
		}
	}

	if len(cards) > 0 {
		cardsData, err := json.MarshalIndent(cards, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := writeZipFile(zw, cardsMember, cardsData); err != nil {
			return nil, fmt.Errorf("write cards: %w", err)
		}
	}

	fileRows, err := e.referencedFiles(ext.relPaths)
	if err != nil {
		return nil, err
	}
	if len(fileRows) > 0 {
		filesData, err := json.MarshalIndent(fileRows, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := writeZipFile(zw, filesMember, filesData); err != nil {
			return nil, fmt.Errorf("write files: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	slog.Info("project exported",
		"project", projectID,
		"boards", manifest.BoardCount,
		"assets", manifest.AssetCount,
		"cards", len(cards))
	return manifest, nil
}

// referencedFiles collects the file registry rows behind the archived
// assets, with their paths rewritten to the archive member names so an
// importer can match them back up. Bundles without registry-backed
// assets simply omit the member.
func (e *Exporter) referencedFiles(relPaths map[string]string) ([]*model.FileEntry, error) {
	if len(relPaths) == 0 {
		return nil, nil
	}
	all, err := e.gateway.GetFiles()
	if err != nil {
		return nil, err
	}
	var rows []*model.FileEntry
	for _, f := range all {
		name, ok := relPaths[f.FilePath]
		if !ok {
			continue
		}
		row := *f
		row.FilePath = name
		rows = append(rows, &row)
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].FilePath < rows[b].FilePath })
	return rows, nil
}

// archiveAsset is one extracted asset awaiting its spot in the archive.
type archiveAsset struct {
	name string
	data []byte
}

// extraction accumulates asset bytes pulled out of snapshots during one
// export. Names are content-addressed, so identical bytes referenced from
// several boards land in the archive exactly once.
type extraction struct {
	assets    asset.Store
	files     []archiveAsset
	usedNames map[string]string // archive name -> dedupe marker
	relPaths  map[string]string // durable relative path -> archive name
}

// extract rewrites every fetchable asset reference in doc to an archive
// pointer, collecting the bytes.
func (x *extraction) extract(doc *snapshot.Document, boardID string) {
	doc.RewriteAssets(func(ref snapshot.AssetRef) (snapshot.AssetUpdate, bool) {
		data, filename, ok := x.fetch(ref, boardID)
		if !ok {
			return snapshot.AssetUpdate{}, false
		}
		name := x.add(data, filename)
		if ref.RelativePath != "" {
			x.relPaths[ref.RelativePath] = name
		}
		return snapshot.AssetUpdate{Src: AssetPointer(name)}, true
	})
}

// fetch loads the raw bytes behind one asset reference. Remote URLs and
// unresolvable references are skipped.
func (x *extraction) fetch(ref snapshot.AssetRef, boardID string) (data []byte, filename string, ok bool) {
	switch {
	case asset.IsDataURL(ref.Src):
		bytes, mimeType, err := asset.ParseDataURL(ref.Src)
		if err != nil {
			slog.Warn("asset data URL did not decode, leaving reference untouched",
				"board", boardID, "record", ref.RecordID, "error", err)
			return nil, "", false
		}
		return bytes, "asset" + asset.ExtForMime(mimeType), true

	case asset.IsRemoteURL(ref.Src):
		// Remote assets stay remote; the bundle does not vendor the web.
		return nil, "", false

	case ref.RelativePath != "":
		bytes, err := x.assets.ReadBytes(ref.RelativePath)
		if err != nil {
			slog.Warn("asset bytes unavailable, leaving reference untouched",
				"board", boardID, "relativePath", ref.RelativePath, "error", err)
			return nil, "", false
		}
		return bytes, filepath.Base(ref.RelativePath), true

	case ref.Src != "":
		bytes, err := asset.ReadFileURL(ref.Src)
		if err != nil {
			slog.Warn("asset source did not resolve, leaving reference untouched",
				"board", boardID, "src", ref.Src, "error", err)
			return nil, "", false
		}
		return bytes, asset.FilenameFromURL(ref.Src), true
	}
	return nil, "", false
}

// add registers bytes under a collision-free archive name and returns it.
// The name is a content hash plus the original extension, so the same
// bytes always map to the same name within one export.
func (x *extraction) add(data []byte, filename string) string {
	name := contentName(data, filename)
	if _, exists := x.usedNames[name]; !exists {
		x.usedNames[name] = filename
		x.files = append(x.files, archiveAsset{name: name, data: data})
	}
	return name
}

// contentName derives an archive filename from the bytes themselves: the
// first 16 hex chars of the content hash plus the original extension.
func contentName(data []byte, filename string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16] + filepath.Ext(filename)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
