package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveWritesUniqueFiles(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/static")

	first, err := store.Save(context.Background(), "product_images", FromBytes("a.PNG", []byte("one")))
	require.NoError(t, err)
	second, err := store.Save(context.Background(), "product_images", FromBytes("a.PNG", []byte("two")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "/static/product_images/"))
	assert.True(t, strings.HasSuffix(first, ".png"))

	content, err := os.ReadFile(filepath.Join(root, "product_images", filepath.Base(first)))
	require.NoError(t, err)
	assert.Equal(t, "one", string(content))
}

func TestLocalSaveKeepsFolderInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "static")

	got, err := store.Save(context.Background(), "../../escape", FromBytes("x.txt", []byte("x")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "/static/escape/"))

	_, err = os.Stat(filepath.Join(root, "escape", filepath.Base(got)))
	assert.NoError(t, err)
}

func TestLocalRemove(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/static")
	ctx := context.Background()

	saved, err := store.Save(ctx, "product_images", FromBytes("a.png", []byte("a")))
	require.NoError(t, err)
	onDisk := filepath.Join(root, "product_images", filepath.Base(saved))

	require.NoError(t, store.Remove(ctx, saved))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	assert.NoError(t, store.Remove(ctx, saved))

	assert.Error(t, store.Remove(ctx, "/elsewhere/a.png"))
	assert.Error(t, store.Remove(ctx, "/static/../../etc/passwd"))
}

func TestExtensionSanitizes(t *testing.T) {
	assert.Equal(t, ".jpg", extension("photo.JPG"))
	assert.Equal(t, "", extension("noext"))
	assert.Equal(t, "", extension("evil.p$p"))
	assert.Equal(t, ".png", extension("../../dir/x.png"))
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(t.TempDir(), "/static").Save(ctx, "p", FromBytes("a.png", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "http://api.test/static/a.png", AbsoluteURL("http://api.test/", "/static/a.png"))
	assert.Equal(t, "https://cdn.test/a.png", AbsoluteURL("http://api.test", "https://cdn.test/a.png"))
	assert.Equal(t, "", AbsoluteURL("http://api.test", ""))
}
