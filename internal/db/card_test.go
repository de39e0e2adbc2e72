package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noureldenadel/notly/internal/model"
)

func TestCard_CRUD(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	t.Run("save applies defaults", func(t *testing.T) {
		c := &model.Card{ID: "c1", Content: "<p>hello world</p>", WordCount: 2}
		require.NoError(t, d.SaveCard(c, "hello world"))
		assert.Equal(t, model.DefaultContentType, c.ContentType)

		got, err := d.GetCard("c1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "<p>hello world</p>", got.Content)
		assert.Equal(t, 2, got.WordCount)
		assert.False(t, got.IsHidden)
	})

	t.Run("upsert updates fields", func(t *testing.T) {
		c := &model.Card{ID: "c1", Title: "Greeting", Content: "<p>hi</p>", IsHidden: true, WordCount: 1}
		require.NoError(t, d.SaveCard(c, "hi"))

		got, err := d.GetCard("c1")
		require.NoError(t, err)
		assert.Equal(t, "Greeting", got.Title)
		assert.True(t, got.IsHidden)
		assert.Equal(t, 1, got.WordCount)
	})

	t.Run("get missing returns nil nil", func(t *testing.T) {
		got, err := d.GetCard("nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list", func(t *testing.T) {
		cards, err := d.GetCards()
		require.NoError(t, err)
		assert.Len(t, cards, 1)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, d.DeleteCard("c1"))
		require.NoError(t, d.DeleteCard("c1"))
	})
}

func TestSearchCards(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	require.NoError(t, d.SaveCard(&model.Card{
		ID: "c1", Title: "Reading list", Content: "<p>papers on distributed consensus</p>", WordCount: 4,
	}, "papers on distributed consensus"))
	require.NoError(t, d.SaveCard(&model.Card{
		ID: "c2", Title: "Groceries", Content: "<p>milk and bread</p>", WordCount: 3,
	}, "milk and bread"))

	t.Run("matches indexed text", func(t *testing.T) {
		matches, err := d.SearchCards("consensus")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "c1", matches[0].CardID)
		assert.Contains(t, matches[0].Snippet, "[consensus]")
	})

	t.Run("prefix match", func(t *testing.T) {
		matches, err := d.SearchCards("distrib")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "c1", matches[0].CardID)
	})

	t.Run("reindexed on save", func(t *testing.T) {
		require.NoError(t, d.SaveCard(&model.Card{
			ID: "c2", Title: "Groceries", Content: "<p>eggs only</p>", WordCount: 2,
		}, "eggs only"))

		matches, err := d.SearchCards("milk")
		require.NoError(t, err)
		assert.Empty(t, matches)

		matches, err = d.SearchCards("eggs")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "c2", matches[0].CardID)
	})

	t.Run("quotes in query are stripped", func(t *testing.T) {
		_, err := d.SearchCards(`"consensus`)
		require.NoError(t, err)
	})

	t.Run("empty query returns nothing", func(t *testing.T) {
		matches, err := d.SearchCards("   ")
		require.NoError(t, err)
		assert.Nil(t, matches)
	})

	t.Run("deleted card leaves the index", func(t *testing.T) {
		require.NoError(t, d.DeleteCard("c1"))
		matches, err := d.SearchCards("consensus")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
