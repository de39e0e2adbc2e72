package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noureldenadel/notly/internal/asset"
	notlyerr "github.com/noureldenadel/notly/internal/errors"
	"github.com/noureldenadel/notly/internal/model"
	"github.com/noureldenadel/notly/internal/snapshot"
	"github.com/noureldenadel/notly/internal/storage"
)

// fixture is one live workspace with an asset-bearing project ready to
// export.
type fixture struct {
	gateway storage.Gateway
	assets  asset.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gw := storage.NewMemoryBackend()
	require.NoError(t, gw.Init())
	t.Cleanup(func() { _ = gw.Close() })
	return &fixture{
		gateway: gw,
		assets:  asset.NewFSStore(t.TempDir()),
	}
}

// seedProject builds a project with one board whose snapshot references a
// stored image and a card, plus the card itself. Returns the project id,
// the board id, and the asset's durable relative path.
func (fx *fixture) seedProject(t *testing.T) (projectID, boardID, relPath string) {
	t.Helper()

	ref, err := fx.assets.Save([]byte("fake-png-bytes"), "photo.png", asset.CategoryImages)
	require.NoError(t, err)

	project := &model.Project{
		ID:          "p1",
		Title:       "Research",
		Description: "notes on things",
		Color:       "#aabbcc",
		CreatedAt:   1000,
		UpdatedAt:   2000,
	}
	require.NoError(t, fx.gateway.SaveProject(project))

	board := &model.Board{
		ID:        "b1",
		ProjectID: "p1",
		Title:     "Main",
		Position:  0,
		CreatedAt: 1000,
		UpdatedAt: 2000,
	}
	require.NoError(t, fx.gateway.SaveBoard(board))

	card := &model.Card{
		ID:          "c1",
		Title:       "Idea",
		Content:     "<p>two words</p>",
		ContentType: model.DefaultContentType,
		WordCount:   2,
		CreatedAt:   1000,
		UpdatedAt:   2000,
	}
	require.NoError(t, fx.gateway.SaveCard(card, "two words"))

	snap := `{
		"store": {
			"asset:img": {
				"typeName": "asset",
				"props": {"src": "` + ref.URL + `", "w": 320},
				"meta": {"relativePath": "` + ref.RelativePath + `"}
			},
			"shape:card": {"typeName": "shape", "props": {"cardId": "c1", "x": 5}},
			"shape:rect": {"typeName": "shape", "props": {"geo": "rectangle"}}
		},
		"schema": {"schemaVersion": 2}
	}`
	require.NoError(t, fx.gateway.SaveCanvasSnapshot("b1", snap))

	return "p1", "b1", ref.RelativePath
}

func exportToDisk(t *testing.T, fx *fixture, projectID string) (string, *Manifest) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "research.notly")
	manifest, err := NewExporter(fx.gateway, fx.assets, "0.6.0").ExportToFile(projectID, path)
	require.NoError(t, err)
	return path, manifest
}

func TestExport(t *testing.T) {
	t.Parallel()

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		_, err := NewExporter(fx.gateway, fx.assets, "0.6.0").Export("missing", &bytes.Buffer{})
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeProjectNotFound, ne.Code)
	})

	t.Run("archive layout", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		projectID, boardID, _ := fx.seedProject(t)

		path, manifest := exportToDisk(t, fx, projectID)
		assert.Equal(t, FormatVersion, manifest.Version)
		assert.Equal(t, "Research", manifest.ProjectName)
		assert.Equal(t, 1, manifest.BoardCount)
		assert.Equal(t, 1, manifest.AssetCount)

		r, err := zip.OpenReader(path)
		require.NoError(t, err)
		defer r.Close()

		names := make(map[string]bool)
		for _, f := range r.File {
			names[f.Name] = true
		}
		assert.True(t, names["manifest.json"])
		assert.True(t, names["project.json"])
		assert.True(t, names["boards/"+boardID+".json"])
		assert.True(t, names["cards.json"])

		boardData, err := readZipFile(findZipFile(&r.Reader, "boards/"+boardID+".json"))
		require.NoError(t, err)
		var board model.Board
		require.NoError(t, json.Unmarshal(boardData, &board))
		assert.Empty(t, board.ProjectID)
		assert.Contains(t, board.Snapshot, AssetPointerPrefix)
		// Card ids are remapped on import, not export.
		assert.Contains(t, board.Snapshot, `"c1"`)
	})

	t.Run("every pointer has an archive member", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		projectID, boardID, _ := fx.seedProject(t)
		path, _ := exportToDisk(t, fx, projectID)

		r, err := zip.OpenReader(path)
		require.NoError(t, err)
		defer r.Close()

		members := make(map[string]bool)
		for _, f := range r.File {
			members[f.Name] = true
		}

		boardData, err := readZipFile(findZipFile(&r.Reader, "boards/"+boardID+".json"))
		require.NoError(t, err)
		var board model.Board
		require.NoError(t, json.Unmarshal(boardData, &board))

		doc, err := snapshot.Decode(board.Snapshot)
		require.NoError(t, err)
		pointers := 0
		for _, ref := range doc.AssetRefs() {
			if IsAssetPointer(ref.Src) {
				pointers++
				name := strings.TrimPrefix(ref.Src, AssetPointerPrefix)
				assert.True(t, members["assets/"+name], "pointer %s has no member", ref.Src)
			}
		}
		assert.Equal(t, 1, pointers)
	})

	t.Run("data url assets are extracted", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p2", Title: "Inline"}))
		require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: "b2", ProjectID: "p2", Title: "B"}))
		snap := `{"store": {"asset:a": {"typeName": "asset", "props": {"src": "` +
			asset.EncodeDataURL([]byte("gif-bytes"), "image/gif") + `"}}}}`
		require.NoError(t, fx.gateway.SaveCanvasSnapshot("b2", snap))

		var buf bytes.Buffer
		manifest, err := NewExporter(fx.gateway, fx.assets, "0.6.0").Export("p2", &buf)
		require.NoError(t, err)
		assert.Equal(t, 1, manifest.AssetCount)

		r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		found := false
		for _, f := range r.File {
			if strings.HasPrefix(f.Name, "assets/") {
				assert.True(t, strings.HasSuffix(f.Name, ".gif"))
				data, rerr := readZipFile(f)
				require.NoError(t, rerr)
				assert.Equal(t, []byte("gif-bytes"), data)
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("remote urls stay remote and are not counted", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p3", Title: "Remote"}))
		require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: "b3", ProjectID: "p3", Title: "B"}))
		snap := `{"store": {"asset:r": {"typeName": "asset", "props": {"src": "https://example.com/pic.jpg"}}}}`
		require.NoError(t, fx.gateway.SaveCanvasSnapshot("b3", snap))

		var buf bytes.Buffer
		manifest, err := NewExporter(fx.gateway, fx.assets, "0.6.0").Export("p3", &buf)
		require.NoError(t, err)
		assert.Equal(t, 0, manifest.AssetCount)

		r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		boardData, err := readZipFile(findZipFile(r, "boards/b3.json"))
		require.NoError(t, err)
		assert.Contains(t, string(boardData), "https://example.com/pic.jpg")
	})

	t.Run("malformed snapshot exports as no snapshot", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p4", Title: "Broken"}))
		require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: "b4", ProjectID: "p4", Title: "B"}))
		require.NoError(t, fx.gateway.SaveCanvasSnapshot("b4", "{definitely not json"))

		var buf bytes.Buffer
		manifest, err := NewExporter(fx.gateway, fx.assets, "0.6.0").Export("p4", &buf)
		require.NoError(t, err)
		assert.Equal(t, 1, manifest.BoardCount)

		r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		boardData, err := readZipFile(findZipFile(r, "boards/b4.json"))
		require.NoError(t, err)
		var board model.Board
		require.NoError(t, json.Unmarshal(boardData, &board))
		assert.Empty(t, board.Snapshot)
	})

	t.Run("registry-backed assets carry their file rows", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		projectID, _, relPath := fx.seedProject(t)
		require.NoError(t, fx.gateway.SaveFile(&model.FileEntry{
			ID:       "f1",
			Filename: "photo.png",
			FilePath: relPath,
			FileType: asset.CategoryImages,
			MimeType: "image/png",
		}))

		path, _ := exportToDisk(t, fx, projectID)
		r, err := zip.OpenReader(path)
		require.NoError(t, err)
		defer r.Close()

		data, err := readZipFile(findZipFile(&r.Reader, "files.json"))
		require.NoError(t, err)
		var rows []*model.FileEntry
		require.NoError(t, json.Unmarshal(data, &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "photo.png", rows[0].Filename)
		// The path now names the archive member, not local storage.
		assert.NotEqual(t, relPath, rows[0].FilePath)
		member := findZipFile(&r.Reader, "assets/"+rows[0].FilePath)
		require.NotNil(t, member)
	})

	t.Run("identical bytes dedupe to one archive member", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ref, err := fx.assets.Save([]byte("shared-bytes"), "shared.png", asset.CategoryImages)
		require.NoError(t, err)

		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p5", Title: "Dedupe"}))
		for _, boardID := range []string{"b5a", "b5b"} {
			require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: boardID, ProjectID: "p5", Title: boardID}))
			snap := `{"store": {"asset:x": {"typeName": "asset", "props": {"src": "` + ref.URL +
				`"}, "meta": {"relativePath": "` + ref.RelativePath + `"}}}}`
			require.NoError(t, fx.gateway.SaveCanvasSnapshot(boardID, snap))
		}

		var buf bytes.Buffer
		manifest, err := NewExporter(fx.gateway, fx.assets, "0.6.0").Export("p5", &buf)
		require.NoError(t, err)
		assert.Equal(t, 1, manifest.AssetCount)
	})
}

func TestImport(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		projectID, _, _ := fx.seedProject(t)
		path, _ := exportToDisk(t, fx, projectID)

		newID, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.NoError(t, err)
		require.NotEmpty(t, newID)
		assert.NotEqual(t, projectID, newID)

		imported, err := fx.gateway.GetProject(newID)
		require.NoError(t, err)
		require.NotNil(t, imported)
		assert.Equal(t, "Research", imported.Title)
		assert.Equal(t, "notes on things", imported.Description)
		assert.Equal(t, "#aabbcc", imported.Color)

		boards, err := fx.gateway.GetBoards(newID)
		require.NoError(t, err)
		require.Len(t, boards, 1)
		assert.NotEqual(t, "b1", boards[0].ID)

		snap, err := fx.gateway.LoadCanvasSnapshot(boards[0].ID)
		require.NoError(t, err)
		require.NotEmpty(t, snap)

		doc, err := snapshot.Decode(snap)
		require.NoError(t, err)
		// Same structure as the source board.
		assert.Equal(t, 2, doc.ShapeCount())
		refs := doc.AssetRefs()
		require.Len(t, refs, 1)
		assert.False(t, IsAssetPointer(refs[0].Src))
		assert.NotEmpty(t, refs[0].RelativePath)

		// The asset resolves to real bytes again.
		data, err := fx.assets.ReadBytes(refs[0].RelativePath)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake-png-bytes"), data)

		// The embedded card id points at the freshly created card.
		cardIDs := doc.CardIDs()
		require.Len(t, cardIDs, 1)
		assert.NotEqual(t, "c1", cardIDs[0])
		card, err := fx.gateway.GetCard(cardIDs[0])
		require.NoError(t, err)
		require.NotNil(t, card)
		assert.Equal(t, "Idea", card.Title)
	})

	t.Run("identifier freshness across repeated imports", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		projectID, _, _ := fx.seedProject(t)
		path, _ := exportToDisk(t, fx, projectID)

		importer := NewImporter(fx.gateway, fx.assets)
		first, err := importer.ImportFile(path)
		require.NoError(t, err)
		second, err := importer.ImportFile(path)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		firstBoards, err := fx.gateway.GetBoards(first)
		require.NoError(t, err)
		secondBoards, err := fx.gateway.GetBoards(second)
		require.NoError(t, err)
		require.Len(t, firstBoards, 1)
		require.Len(t, secondBoards, 1)
		assert.NotEqual(t, firstBoards[0].ID, secondBoards[0].ID)
	})

	t.Run("parent hierarchy survives renumbering", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p1", Title: "Tree"}))
		require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: "parent", ProjectID: "p1", Title: "Parent", Position: 0}))
		require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: "child", ProjectID: "p1", ParentBoardID: "parent", Title: "Child", Position: 1}))

		path, _ := exportToDisk(t, fx, "p1")
		newID, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.NoError(t, err)

		boards, err := fx.gateway.GetBoards(newID)
		require.NoError(t, err)
		require.Len(t, boards, 2)

		byTitle := make(map[string]*model.Board)
		for _, b := range boards {
			byTitle[b.Title] = b
		}
		require.NotNil(t, byTitle["Parent"])
		require.NotNil(t, byTitle["Child"])
		assert.Equal(t, byTitle["Parent"].ID, byTitle["Child"].ParentBoardID)
		assert.NotEqual(t, "parent", byTitle["Child"].ParentBoardID)
	})

	t.Run("out-of-bundle parent is dropped", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p1", Title: "Dangling"}))
		require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: "lonely", ProjectID: "p1", ParentBoardID: "elsewhere", Title: "Lonely"}))

		path, _ := exportToDisk(t, fx, "p1")
		newID, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.NoError(t, err)

		boards, err := fx.gateway.GetBoards(newID)
		require.NoError(t, err)
		require.Len(t, boards, 1)
		assert.Empty(t, boards[0].ParentBoardID)
	})

	t.Run("shared card id maps consistently across boards", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		require.NoError(t, fx.gateway.SaveProject(&model.Project{ID: "p1", Title: "Shared"}))
		require.NoError(t, fx.gateway.SaveCard(&model.Card{ID: "shared-card", Content: "x", ContentType: model.DefaultContentType}, ""))
		for _, boardID := range []string{"ba", "bb"} {
			require.NoError(t, fx.gateway.SaveBoard(&model.Board{ID: boardID, ProjectID: "p1", Title: boardID}))
			snap := `{"store": {"shape:s": {"typeName": "shape", "props": {"cardId": "shared-card"}}}}`
			require.NoError(t, fx.gateway.SaveCanvasSnapshot(boardID, snap))
		}

		path, _ := exportToDisk(t, fx, "p1")
		newID, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.NoError(t, err)

		boards, err := fx.gateway.GetBoards(newID)
		require.NoError(t, err)
		require.Len(t, boards, 2)

		var ids []string
		for _, b := range boards {
			snap, serr := fx.gateway.LoadCanvasSnapshot(b.ID)
			require.NoError(t, serr)
			doc, derr := snapshot.Decode(snap)
			require.NoError(t, derr)
			cardIDs := doc.CardIDs()
			require.Len(t, cardIDs, 1)
			ids = append(ids, cardIDs[0])
		}
		assert.Equal(t, ids[0], ids[1])
		assert.NotEqual(t, "shared-card", ids[0])
	})

	t.Run("bundled file metadata survives import", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		projectID, _, relPath := fx.seedProject(t)
		require.NoError(t, fx.gateway.SaveFile(&model.FileEntry{
			ID:       "f1",
			Filename: "photo.png",
			FilePath: relPath,
			FileType: asset.CategoryImages,
			MimeType: "image/png",
		}))

		path, _ := exportToDisk(t, fx, projectID)
		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.NoError(t, err)

		files, err := fx.gateway.GetFiles()
		require.NoError(t, err)
		var imported *model.FileEntry
		for _, f := range files {
			if f.ImportMode == "bundle" {
				imported = f
			}
		}
		require.NotNil(t, imported)
		assert.Equal(t, "photo.png", imported.Filename)
		assert.Equal(t, "image/png", imported.MimeType)
		assert.NotEqual(t, "f1", imported.ID)
	})

	t.Run("corrupt files member aborts before persistence", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		path := writeArchive(t, map[string][]byte{
			"manifest.json": []byte(`{"version": "` + FormatVersion + `"}`),
			"project.json":  []byte(`{"id": "x", "title": "T"}`),
			"files.json":    []byte("[broken"),
		})

		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeBundleInvalid, ne.Code)

		projects, err := fx.gateway.GetProjects()
		require.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("version gate writes nothing", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		path := writeArchive(t, map[string][]byte{
			"manifest.json": []byte(`{"version": "9.9", "projectName": "Future"}`),
			"project.json":  []byte(`{"id": "x", "title": "Future"}`),
		})

		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeBundleVersionUnsupported, ne.Code)

		projects, err := fx.gateway.GetProjects()
		require.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		path := writeArchive(t, map[string][]byte{
			"project.json": []byte(`{"id": "x", "title": "T"}`),
		})

		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeBundleInvalid, ne.Code)
	})

	t.Run("missing project json", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		path := writeArchive(t, map[string][]byte{
			"manifest.json": []byte(`{"version": "` + FormatVersion + `"}`),
		})

		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeBundleInvalid, ne.Code)
	})

	t.Run("corrupt board file aborts before persistence", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		path := writeArchive(t, map[string][]byte{
			"manifest.json":   []byte(`{"version": "` + FormatVersion + `"}`),
			"project.json":    []byte(`{"id": "x", "title": "T"}`),
			"boards/bad.json": []byte("{broken"),
		})

		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeBundleInvalid, ne.Code)

		projects, err := fx.gateway.GetProjects()
		require.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("not a zip file", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		path := filepath.Join(t.TempDir(), "garbage.notly")
		require.NoError(t, os.WriteFile(path, []byte("not an archive"), 0644))

		_, err := NewImporter(fx.gateway, fx.assets).ImportFile(path)
		require.Error(t, err)
		ne := notlyerr.AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, notlyerr.CodeBundleInvalid, ne.Code)
	})
}

// writeArchive builds a zip on disk from member name to content.
func writeArchive(t *testing.T, members map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.notly")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range members {
		require.NoError(t, writeZipFile(zw, name, data))
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}
