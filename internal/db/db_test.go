package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noureldenadel/notly/internal/model"
)

func TestOpen_FileBacked(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "notly.db")
	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.SaveProject(&model.Project{ID: "p1", Title: "Research"}))
	got, err := d.GetProject("p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Research", got.Title)
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notly.db")
	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Reopening reruns migrate against the applied version table.
	d2, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d2.Close() })
}

func TestProject_CRUD(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	t.Run("save and get", func(t *testing.T) {
		p := &model.Project{
			ID:          "p1",
			Title:       "Research",
			Description: "literature review",
			Color:       "#ff8800",
		}
		require.NoError(t, d.SaveProject(p))
		assert.NotZero(t, p.CreatedAt)
		assert.NotZero(t, p.UpdatedAt)

		got, err := d.GetProject("p1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Research", got.Title)
		assert.Equal(t, "literature review", got.Description)
		assert.Equal(t, "#ff8800", got.Color)
	})

	t.Run("upsert keeps created_at", func(t *testing.T) {
		before, err := d.GetProject("p1")
		require.NoError(t, err)

		p := *before
		p.Title = "Research v2"
		require.NoError(t, d.SaveProject(&p))

		got, err := d.GetProject("p1")
		require.NoError(t, err)
		assert.Equal(t, "Research v2", got.Title)
		assert.Equal(t, before.CreatedAt, got.CreatedAt)
	})

	t.Run("get missing returns nil nil", func(t *testing.T) {
		got, err := d.GetProject("nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list", func(t *testing.T) {
		projects, err := d.GetProjects()
		require.NoError(t, err)
		assert.Len(t, projects, 1)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, d.DeleteProject("p1"))
		require.NoError(t, d.DeleteProject("p1"))
		got, err := d.GetProject("p1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestBoard_CRUD(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	require.NoError(t, d.SaveProject(&model.Project{ID: "p1", Title: "Research"}))

	t.Run("save and get", func(t *testing.T) {
		b := &model.Board{ID: "b1", ProjectID: "p1", Title: "Overview", Position: 0}
		require.NoError(t, d.SaveBoard(b))

		got, err := d.GetBoard("b1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "p1", got.ProjectID)
		assert.Empty(t, got.ParentBoardID)
		assert.Empty(t, got.Snapshot)
	})

	t.Run("get by project ordered by position", func(t *testing.T) {
		require.NoError(t, d.SaveBoard(&model.Board{ID: "b3", ProjectID: "p1", Title: "Third", Position: 2}))
		require.NoError(t, d.SaveBoard(&model.Board{ID: "b2", ProjectID: "p1", Title: "Second", Position: 1, ParentBoardID: "b1"}))

		boards, err := d.GetBoards("p1")
		require.NoError(t, err)
		require.Len(t, boards, 3)
		assert.Equal(t, []string{"b1", "b2", "b3"}, []string{boards[0].ID, boards[1].ID, boards[2].ID})
		assert.Equal(t, "b1", boards[1].ParentBoardID)
	})

	t.Run("get all boards without project filter", func(t *testing.T) {
		boards, err := d.GetBoards("")
		require.NoError(t, err)
		assert.Len(t, boards, 3)
	})

	t.Run("project delete cascades to boards", func(t *testing.T) {
		require.NoError(t, d.DeleteProject("p1"))
		boards, err := d.GetBoards("p1")
		require.NoError(t, err)
		assert.Empty(t, boards)
	})
}

func TestCanvasSnapshot(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	require.NoError(t, d.SaveProject(&model.Project{ID: "p1", Title: "Research"}))
	require.NoError(t, d.SaveBoard(&model.Board{ID: "b1", ProjectID: "p1", Title: "Canvas"}))

	t.Run("load when absent returns empty", func(t *testing.T) {
		snap, err := d.LoadCanvasSnapshot("b1")
		require.NoError(t, err)
		assert.Empty(t, snap)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		require.NoError(t, d.SaveCanvasSnapshot("b1", `{"store":{}}`))
		snap, err := d.LoadCanvasSnapshot("b1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"store":{}}`, snap)
	})

	t.Run("save for unknown board fails", func(t *testing.T) {
		assert.Error(t, d.SaveCanvasSnapshot("missing", "{}"))
	})

	t.Run("load for unknown board returns empty", func(t *testing.T) {
		snap, err := d.LoadCanvasSnapshot("missing")
		require.NoError(t, err)
		assert.Empty(t, snap)
	})
}
