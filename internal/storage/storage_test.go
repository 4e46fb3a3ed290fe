package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, owner string) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), owner, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "alice")

	saved, err := s.Put(ctx, Record{ID: "wordpress", Name: "WordPress", Template: "kind: Pod\n"})
	require.NoError(t, err)
	assert.Equal(t, 2024, saved.Modified.Year())
	assert.FileExists(t, filepath.Join(s.Dir(), "wordpress.yaml"))
	assert.Equal(t, "alice", filepath.Base(s.Dir()))

	got, err := s.Get(ctx, "wordpress")
	require.NoError(t, err)
	assert.Equal(t, "WordPress", got.Name)
	assert.Equal(t, "kind: Pod\n", got.Template)
	assert.True(t, saved.Modified.Equal(got.Modified))
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "")

	_, err := s.Put(ctx, Record{ID: "a", Template: "one"})
	require.NoError(t, err)
	_, err = s.Put(ctx, Record{ID: "a", Template: "two"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Template)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "")

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, id := range []string{"redis", "drupal", "wordpress"} {
		_, err := s.Put(ctx, Record{ID: id, Template: id})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))

	list, err = s.List(ctx)
	require.NoError(t, err)
	var ids []string
	for _, rec := range list {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"drupal", "redis", "wordpress"}, ids)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "")

	_, err := s.Put(ctx, Record{ID: "a", Template: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "a"))

	_, err = s.Get(ctx, "a")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(s.Delete(ctx, "a")))
}

func TestInvalidIDs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "")

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := s.Get(ctx, id)
		assert.Error(t, err, id)
		assert.False(t, IsNotFound(err), id)
		_, err = s.Put(ctx, Record{ID: id})
		assert.Error(t, err, id)
	}

	_, err := NewFileStore(t.TempDir(), "../other", nil)
	assert.Error(t, err)
	_, err = NewFileStore("", "", nil)
	assert.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStore(t, "")
	_, err := s.Put(ctx, Record{ID: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}
