package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil, opts...)
	require.NoError(t, err)
	return s
}

func TestHashDeterministicAcrossPaths(t *testing.T) {
	data := bytes.Repeat([]byte("knowledge vault "), 3000) // spans several chunks
	inMem := Hash(data)
	assert.Equal(t, inMem, Hash(data))

	streamed, n, err := HashReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, inMem, streamed)
	assert.Equal(t, int64(len(data)), n)
	assert.Len(t, inMem, 64)
}

func TestStoreIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	content := []byte("hello world")

	first, err := s.Store(ctx, content, "", "notes.txt")
	require.NoError(t, err)
	assert.False(t, first.Existed)
	assert.Equal(t, "files/"+first.Digest[:2]+"/"+first.Digest+".txt", first.RelativePath)

	info, err := os.Stat(s.Abs(first.RelativePath))
	require.NoError(t, err)

	second, err := s.Store(ctx, content, first.Digest, "notes.txt")
	require.NoError(t, err)
	assert.True(t, second.Existed)
	assert.Equal(t, first.RelativePath, second.RelativePath)
	assert.Equal(t, first.Digest, second.Digest)

	again, err := os.Stat(s.Abs(first.RelativePath))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestStoreKeepsFirstWritersExtension(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	content := []byte("same bytes, different names")

	a, err := s.Store(ctx, content, "", "report.md")
	require.NoError(t, err)
	b, err := s.Store(ctx, content, "", "copy.txt")
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
	assert.Equal(t, a.RelativePath, b.RelativePath)
	assert.True(t, strings.HasSuffix(b.RelativePath, ".md"))

	entries, err := os.ReadDir(filepath.Dir(s.Abs(a.RelativePath)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreRejectsMalformedDigest(t *testing.T) {
	s := newStore(t)
	_, err := s.Store(context.Background(), []byte("x"), "not-a-digest", "x.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestStoreFromPathMatchesInMemory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	data := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 5000)
	src := filepath.Join(t.TempDir(), "blob.BIN")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	blob, err := s.StoreFromPath(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, Hash(data), blob.Digest)
	assert.Equal(t, int64(len(data)), blob.Size)
	assert.True(t, strings.HasSuffix(blob.RelativePath, ".bin"))

	stored, err := os.ReadFile(s.Abs(blob.RelativePath))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	dup, err := s.Store(ctx, data, "", "other.dat")
	require.NoError(t, err)
	assert.True(t, dup.Existed)
	assert.Equal(t, blob.RelativePath, dup.RelativePath)

	leftovers, err := filepath.Glob(filepath.Join(s.Root(), "files", ".incoming-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStoreFromPathMissingSource(t *testing.T) {
	s := newStore(t)
	_, err := s.StoreFromPath(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorageIO))
}

func TestConcurrentWritersSameDigest(t *testing.T) {
	s := newStore(t)
	content := []byte("raced content")
	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := s.Store(context.Background(), content, "", "r.txt")
			assert.NoError(t, err)
			paths[i] = b.RelativePath
		}(i)
	}
	wg.Wait()
	for _, p := range paths {
		assert.Equal(t, paths[0], p)
	}
	got, err := os.ReadFile(s.Abs(paths[0]))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	b, err := s.Store(context.Background(), []byte("bye"), "", "bye.txt")
	require.NoError(t, err)

	ok, err := s.Delete(b.RelativePath)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(b.RelativePath)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Delete("../outside.txt")
	assert.Error(t, err)
}

func TestThumbnailsKeyedByItem(t *testing.T) {
	s := newStore(t)
	rel, err := s.SaveThumbnail("item-1", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/item-1.jpg", rel)
	assert.FileExists(t, s.Abs(rel))

	ok, err := s.DeleteThumbnail("item-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.SaveThumbnail("../evil", nil)
	assert.Error(t, err)
}

type recordingMirror struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *recordingMirror) Put(_ context.Context, key, _ string, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return m.err
}

func TestMirrorReceivesNewBlobsOnly(t *testing.T) {
	m := &recordingMirror{err: errors.New("bucket offline")}
	s := newStore(t, WithMirror(m))
	ctx := context.Background()

	b, err := s.Store(ctx, []byte("mirrored"), "", "m.txt")
	require.NoError(t, err, "mirror failures must not fail the local commit")
	_, err = s.Store(ctx, []byte("mirrored"), "", "m.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{b.RelativePath}, m.keys)
}
