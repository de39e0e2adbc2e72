package bundle

import (
	"archive/zip"
	"encoding/json"
	"log/slog"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noureldenadel/notly/internal/asset"
	"github.com/noureldenadel/notly/internal/cardtext"
	"github.com/noureldenadel/notly/internal/errors"
	"github.com/noureldenadel/notly/internal/model"
	"github.com/noureldenadel/notly/internal/snapshot"
	"github.com/noureldenadel/notly/internal/storage"
)

// Importer reconstructs an independent project from a bundle archive.
// Every imported entity gets a fresh identifier; cross-references inside
// snapshots and board hierarchies are rewritten to the new ids.
type Importer struct {
	gateway storage.Gateway
	assets  asset.Store
}

func NewImporter(gateway storage.Gateway, assets asset.Store) *Importer {
	return &Importer{gateway: gateway, assets: assets}
}

// ImportFile imports the bundle at path and returns the new project id.
//
// There is no transactional rollback: a persistence failure mid-import
// leaves the entities committed so far in place. The failure log carries
// a summary of exactly what was committed to support manual cleanup.
func (i *Importer) ImportFile(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", errors.ErrBundleInvalid(filepath.Base(path), "not a readable archive").WithCause(err)
	}
	defer func() { _ = r.Close() }()
	return i.Import(&r.Reader)
}

// Import imports a bundle from an open archive and returns the new
// project id.
func (i *Importer) Import(r *zip.Reader) (string, error) {
	manifest, err := readManifest(r)
	if err != nil {
		return "", err
	}

	project, err := readProject(r)
	if err != nil {
		return "", err
	}

	boards, err := readBoards(r)
	if err != nil {
		return "", err
	}

	cards, err := readCards(r)
	if err != nil {
		return "", err
	}

	fileMeta, err := readFiles(r)
	if err != nil {
		return "", err
	}

	// Everything parses; persistence starts here.
	commit := &commitLog{}

	assetMap := i.materializeAssets(r, fileMeta, commit)

	now := model.NowMillis()
	newProject := *project
	newProject.ID = uuid.NewString()
	newProject.CreatedAt = now
	newProject.UpdatedAt = now
	if err := i.gateway.SaveProject(&newProject); err != nil {
		return "", commit.fail(err)
	}
	commit.projectID = newProject.ID

	cardMap := make(map[string]string, len(cards))
	for _, c := range cards {
		cardMap[c.ID] = uuid.NewString()
	}
	for _, c := range cards {
		newCard := *c
		newCard.ID = cardMap[c.ID]
		newCard.CreatedAt = now
		newCard.UpdatedAt = now
		if err := i.gateway.SaveCard(&newCard, cardtext.SearchText(newCard.Content)); err != nil {
			return "", commit.fail(err)
		}
		commit.cardIDs = append(commit.cardIDs, newCard.ID)
	}

	boardMap := make(map[string]string, len(boards))
	for _, b := range boards {
		boardMap[b.ID] = uuid.NewString()
	}

	for _, b := range boards {
		newBoard := *b
		newBoard.ID = boardMap[b.ID]
		newBoard.ProjectID = newProject.ID
		newBoard.CreatedAt = now
		newBoard.UpdatedAt = now

		if b.ParentBoardID != "" {
			if mapped, ok := boardMap[b.ParentBoardID]; ok {
				newBoard.ParentBoardID = mapped
			} else {
				// Parent lives outside this bundle; the board joins the
				// hierarchy at the root rather than keeping a dangling id.
				slog.Warn("board parent is not part of the bundle, importing at root",
					"board", b.ID, "parent", b.ParentBoardID)
				newBoard.ParentBoardID = ""
			}
		}

		snap := rewriteSnapshot(b.Snapshot, b.ID, assetMap, cardMap)
		newBoard.Snapshot = ""

		if err := i.gateway.SaveBoard(&newBoard); err != nil {
			return "", commit.fail(err)
		}
		commit.boardIDs = append(commit.boardIDs, newBoard.ID)

		if snap != "" {
			if err := i.gateway.SaveCanvasSnapshot(newBoard.ID, snap); err != nil {
				return "", commit.fail(err)
			}
		}
	}

	slog.Info("project imported",
		"project", newProject.ID,
		"source", manifest.ProjectID,
		"boards", len(boards),
		"cards", len(cards),
		"assets", len(assetMap))
	return newProject.ID, nil
}

// readManifest reads and version-gates the manifest. Nothing else in the
// archive is touched before this passes.
func readManifest(r *zip.Reader) (*Manifest, error) {
	data, err := requireZipFile(r, manifestMember)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.ErrBundleInvalid(manifestMember, "not valid JSON").WithCause(err)
	}
	if m.Version != FormatVersion {
		return nil, errors.ErrBundleVersionUnsupported(m.Version, FormatVersion)
	}
	return &m, nil
}

func readProject(r *zip.Reader) (*model.Project, error) {
	data, err := requireZipFile(r, projectMember)
	if err != nil {
		return nil, err
	}
	var p model.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.ErrBundleInvalid(projectMember, "not valid JSON").WithCause(err)
	}
	return &p, nil
}

// readBoards parses every boards/*.json member, in name order. One
// corrupt board file fails the whole import; a project missing boards is
// worse than no project at all.
func readBoards(r *zip.Reader) ([]*model.Board, error) {
	var files []*zip.File
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, boardsPrefix) && strings.HasSuffix(f.Name, ".json") {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(a, b int) bool { return files[a].Name < files[b].Name })

	var boards []*model.Board
	for _, f := range files {
		data, err := readZipFile(f)
		if err != nil {
			return nil, errors.ErrBundleInvalid(f.Name, "unreadable").WithCause(err)
		}
		var b model.Board
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, errors.ErrBundleInvalid(f.Name, "not a valid board file").WithCause(err)
		}
		boards = append(boards, &b)
	}
	return boards, nil
}

func readCards(r *zip.Reader) ([]*model.Card, error) {
	f := findZipFile(r, cardsMember)
	if f == nil {
		return nil, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, errors.ErrBundleInvalid(cardsMember, "unreadable").WithCause(err)
	}
	var cards []*model.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, errors.ErrBundleInvalid(cardsMember, "not valid JSON").WithCause(err)
	}
	return cards, nil
}

// readFiles parses the optional file registry member. Entries are keyed
// by the archive asset name the exporter wrote into their paths.
func readFiles(r *zip.Reader) (map[string]*model.FileEntry, error) {
	f := findZipFile(r, filesMember)
	if f == nil {
		return nil, nil
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, errors.ErrBundleInvalid(filesMember, "unreadable").WithCause(err)
	}
	var rows []*model.FileEntry
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.ErrBundleInvalid(filesMember, "not valid JSON").WithCause(err)
	}
	meta := make(map[string]*model.FileEntry, len(rows))
	for _, row := range rows {
		meta[row.FilePath] = row
	}
	return meta, nil
}

// materializeAssets re-saves every archived asset through the asset store
// and maps archive pointers to the newly issued references. A failed
// asset is logged and skipped; its pointers stay unresolved in the
// imported snapshots, which renders as a broken reference rather than
// failing the import.
func (i *Importer) materializeAssets(r *zip.Reader, fileMeta map[string]*model.FileEntry, commit *commitLog) map[string]asset.Ref {
	refs := make(map[string]asset.Ref)
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, assetsPrefix) || f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(f.Name, assetsPrefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}

		data, err := readZipFile(f)
		if err != nil {
			slog.Warn("asset member unreadable, skipping", "asset", f.Name, "error", err)
			continue
		}

		mimeType := mime.TypeByExtension(filepath.Ext(name))
		category := asset.CategoryForMime(mimeType)
		ref, err := i.assets.Save(data, name, category)
		if err != nil {
			slog.Warn("asset did not materialize, skipping", "asset", f.Name, "error", err)
			continue
		}
		refs[AssetPointer(name)] = ref

		if ref.RelativePath != "" {
			i.registerFile(name, mimeType, category, int64(len(data)), fileMeta[name], ref, commit)
		}
	}
	return refs
}

// registerFile records a materialized asset in the file registry. The
// bundled registry row, when present, supplies the original filename and
// type metadata. Registry failures are storage hygiene, not import
// correctness.
func (i *Importer) registerFile(name, mimeType, category string, size int64, meta *model.FileEntry, ref asset.Ref, commit *commitLog) {
	now := model.NowMillis()
	entry := &model.FileEntry{
		ID:         uuid.NewString(),
		Filename:   name,
		FilePath:   ref.RelativePath,
		FileType:   category,
		FileSize:   size,
		MimeType:   mimeType,
		ImportMode: "bundle",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if meta != nil {
		entry.Filename = meta.Filename
		if meta.FileType != "" {
			entry.FileType = meta.FileType
		}
		if meta.MimeType != "" {
			entry.MimeType = meta.MimeType
		}
	}
	if err := i.gateway.SaveFile(entry); err != nil {
		slog.Warn("file registry write failed", "file", name, "error", err)
		return
	}
	commit.fileIDs = append(commit.fileIDs, entry.ID)
}

// rewriteSnapshot resolves archive asset pointers and remaps embedded
// card ids in one structural pass. A snapshot that does not parse is
// persisted unchanged; its references surface as broken on next load.
func rewriteSnapshot(snap, boardID string, assetMap map[string]asset.Ref, cardMap map[string]string) string {
	if snap == "" {
		return ""
	}
	doc, err := snapshot.Decode(snap)
	if err != nil {
		slog.Warn("board snapshot did not parse, importing it unchanged",
			"board", boardID, "error", err)
		return snap
	}

	changed := doc.RewriteAssets(func(ref snapshot.AssetRef) (snapshot.AssetUpdate, bool) {
		if !IsAssetPointer(ref.Src) {
			return snapshot.AssetUpdate{}, false
		}
		newRef, ok := assetMap[ref.Src]
		if !ok {
			slog.Warn("archive pointer has no materialized asset, leaving it unresolved",
				"board", boardID, "pointer", ref.Src)
			return snapshot.AssetUpdate{}, false
		}
		return snapshot.AssetUpdate{Src: newRef.URL, RelativePath: newRef.RelativePath}, true
	})
	changed = doc.RewriteCardIDs(cardMap) || changed

	if !changed {
		return snap
	}
	out, err := doc.Encode()
	if err != nil {
		slog.Warn("rewritten snapshot did not serialize, importing original",
			"board", boardID, "error", err)
		return snap
	}
	return out
}

// commitLog tracks what has been persisted, so a mid-import failure can
// report exactly which entities need manual cleanup.
type commitLog struct {
	projectID string
	boardIDs  []string
	cardIDs   []string
	fileIDs   []string
}

func (c *commitLog) fail(err error) error {
	slog.Error("import failed after partial commit, entities listed were persisted",
		"error", err,
		"project", c.projectID,
		"boards", c.boardIDs,
		"cards", c.cardIDs,
		"files", c.fileIDs)
	return err
}
