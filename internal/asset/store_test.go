package asset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_SaveResolveRead(t *testing.T) {
	t.Parallel()

	store := NewFSStore(t.TempDir())
	data := []byte("png bytes here")

	ref, err := store.Save(data, "photo.png", CategoryImages)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.URL, "file://"), "url: %s", ref.URL)
	assert.True(t, strings.HasPrefix(ref.RelativePath, "images/"))
	assert.True(t, strings.HasSuffix(ref.RelativePath, ".png"))

	url, err := store.Resolve(ref.RelativePath)
	require.NoError(t, err)
	assert.Equal(t, ref.URL, url)

	got, err := store.ReadBytes(ref.RelativePath)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	fromURL, err := ReadFileURL(ref.URL)
	require.NoError(t, err)
	assert.Equal(t, data, fromURL)
}

func TestFSStore_ContentHashDedupes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFSStore(dir)

	ref1, err := store.Save([]byte("same bytes"), "a.png", CategoryImages)
	require.NoError(t, err)
	ref2, err := store.Save([]byte("same bytes"), "b.png", CategoryImages)
	require.NoError(t, err)
	assert.Equal(t, ref1.RelativePath, ref2.RelativePath)

	ref3, err := store.Save([]byte("different bytes"), "a.png", CategoryImages)
	require.NoError(t, err)
	assert.NotEqual(t, ref1.RelativePath, ref3.RelativePath)

	entries, err := os.ReadDir(filepath.Join(dir, "images"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFSStore_ResolveMissing(t *testing.T) {
	t.Parallel()

	store := NewFSStore(t.TempDir())
	_, err := store.Resolve("images/doesnotexist.png")
	assert.Error(t, err)
}

func TestFSStore_DeleteBestEffort(t *testing.T) {
	t.Parallel()

	store := NewFSStore(t.TempDir())
	ref, err := store.Save([]byte("bytes"), "doc.pdf", CategoryPDFs)
	require.NoError(t, err)

	store.Delete(ref.RelativePath)
	_, err = store.Resolve(ref.RelativePath)
	assert.Error(t, err)

	// Deleting again must not panic or error.
	store.Delete(ref.RelativePath)
}

func TestDataURLStore(t *testing.T) {
	t.Parallel()

	store := NewDataURLStore()
	ref, err := store.Save([]byte("hello"), "note.png", CategoryImages)
	require.NoError(t, err)
	assert.Empty(t, ref.RelativePath)
	assert.True(t, IsDataURL(ref.URL))

	data, mimeType, err := ParseDataURL(ref.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Contains(t, mimeType, "image/png")

	_, err = store.Resolve("images/x.png")
	assert.Error(t, err)
	_, err = store.ReadBytes("images/x.png")
	assert.Error(t, err)
	store.Delete("images/x.png")
}

func TestParseDataURL(t *testing.T) {
	t.Parallel()

	t.Run("base64", func(t *testing.T) {
		data, mimeType, err := ParseDataURL("data:image/png;base64,aGk=")
		require.NoError(t, err)
		assert.Equal(t, []byte("hi"), data)
		assert.Equal(t, "image/png", mimeType)
	})

	t.Run("unencoded", func(t *testing.T) {
		data, mimeType, err := ParseDataURL("data:text/plain,hello%20world")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello world"), data)
		assert.Equal(t, "text/plain", mimeType)
	})

	t.Run("not a data url", func(t *testing.T) {
		_, _, err := ParseDataURL("https://example.com/a.png")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, err := ParseDataURL("data:image/png;base64")
		assert.Error(t, err)
	})
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryImages, CategoryForMime("image/png"))
	assert.Equal(t, CategoryPDFs, CategoryForMime("application/pdf"))
	assert.Equal(t, CategoryFiles, CategoryForMime("text/plain"))

	assert.Equal(t, ".png", ExtForMime("image/png"))
	assert.Equal(t, ".pdf", ExtForMime("application/pdf"))
	assert.Equal(t, ".bin", ExtForMime("application/x-unknown-weird"))

	assert.Equal(t, "photo.png", FilenameFromURL("file:///data/assets/images/photo.png"))
	assert.Equal(t, "a.pdf", FilenameFromURL("https://example.com/docs/a.pdf?x=1"))
	assert.Equal(t, "", FilenameFromURL("https://example.com/"))

	assert.True(t, IsRemoteURL("https://example.com/a.png"))
	assert.False(t, IsRemoteURL("file:///a.png"))
}
