package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipfeed/clipfeed/internal/storage"
)

func newMediaService(t *testing.T, maxBytes int64) (*MediaService, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewMediaService(local, maxBytes), dir
}

func TestMediaService_StoreNamesFiles(t *testing.T) {
	m, dir := newMediaService(t, 1024)
	m.now = func() time.Time { return time.UnixMilli(1700000000123) }

	name, err := m.Store(context.Background(), strings.NewReader("data"), "My Clip.MOV", 4)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123[0-9a-z]{10}\.mov$`), name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestMediaService_NamesAreUnique(t *testing.T) {
	m, _ := newMediaService(t, 0)
	m.now = func() time.Time { return time.UnixMilli(1) }

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name, err := m.Store(context.Background(), strings.NewReader("x"), "a.mp4", 1)
		require.NoError(t, err)
		assert.False(t, seen[name])
		seen[name] = true
	}
}

func TestMediaExt(t *testing.T) {
	assert.Equal(t, ".mp4", mediaExt("clip"))
	assert.Equal(t, ".webm", mediaExt("clip.WEBM"))
	assert.Equal(t, ".mp4", mediaExt("clip."))
	assert.Equal(t, ".mp4", mediaExt("clip.tar gz"))
	assert.Equal(t, ".mp4", mediaExt("clip.verylongext"))
}

func TestMediaService_RejectsDeclaredOversize(t *testing.T) {
	m, dir := newMediaService(t, 10)

	_, err := m.Store(context.Background(), strings.NewReader("x"), "a.mp4", 11)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "10 B")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written")
}

func TestMediaService_RejectsUnderstatedSize(t *testing.T) {
	m, dir := newMediaService(t, 10)

	_, err := m.Store(context.Background(), strings.NewReader(strings.Repeat("x", 20)), "a.mp4", 5)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file removed")
}

func TestMediaService_NilReader(t *testing.T) {
	m, _ := newMediaService(t, 10)

	_, err := m.Store(context.Background(), nil, "a.mp4", 0)
	assert.ErrorIs(t, err, ErrMissingFile)
}

type undeletableStorage struct {
	*storage.LocalStorage
}

func (undeletableStorage) Delete(ctx context.Context, name string) error {
	return errors.New("disk is read-only")
}

func TestMediaService_FailedCleanupIsLogged(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	m := NewMediaService(undeletableStorage{local}, 10)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, err = m.Store(context.Background(), strings.NewReader(strings.Repeat("x", 20)), "a.mp4", 5)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, logs.String(), "failed to remove rejected upload")
	assert.Contains(t, logs.String(), "disk is read-only")
}
