package xfilestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/observability/xlog"
)

type note struct {
	id   string
	Text string
}

func (n *note) ID() string { return n.id }

func encodeNote(n *note) ([]byte, error) {
	return xjsoncodec.NewWriter().WriteString("id", n.id).WriteString("text", n.Text).End()
}

func decodeNote(doc []byte) (*note, error) {
	r, err := xjsoncodec.NewReader(doc)
	if err != nil {
		return nil, err
	}
	return &note{id: r.ReadString("id"), Text: r.ReadString("text")}, nil
}

func newStore(t *testing.T, opts ...Option) *Store[*note] {
	t.Helper()
	s, err := New(t.TempDir(), encodeNote, decodeNote, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Find(ctx, "n1")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)

	_, err = s.Save(ctx, &note{id: "n1", Text: "hello"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(s.Dir(), "n1.json"))

	got, err := s.Find(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)

	ok, err := s.Exists(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Save(ctx, &note{id: "n1", Text: "updated"})
	require.NoError(t, err)

	removed, err := s.DeleteAndRetrieve(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "updated", removed.Text)

	deleted, err := s.Delete(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.DeleteAndRetrieve(ctx, "n1")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)
}

func TestStore_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, id := range []string{"../escape", "a/b", `a\b`, ".."} {
		_, err := s.Save(ctx, &note{id: id})
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = s.Find(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
	_, err := s.Find(ctx, "")
	assert.ErrorIs(t, err, xmodel.ErrEmptyID)
}

func TestStore_PrettyPrinting(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, WithPrettyPrinting(true), WithFileMode(0o600))

	_, err := s.Save(ctx, &note{id: "p", Text: "x"})
	require.NoError(t, err)

	path := filepath.Join(s.Dir(), "p.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": \"p\",\n  \"text\": \"x\"\n}\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_ListingIgnoresForeignEntries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, id := range []string{"b", "a"} {
		_, err := s.Save(ctx, &note{id: id})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "readme.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".c.json.tmp-123"), []byte("{}"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "sub.json"), 0o750))

	ids, err := s.FindIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.DeleteAll(ctx))
	ids, err = s.FindIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)

	assert.FileExists(t, filepath.Join(s.Dir(), "readme.txt"))
	assert.DirExists(t, filepath.Join(s.Dir(), "sub.json"))
}

func TestStore_ForEachSkipsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).Build()
	require.NoError(t, err)
	s := newStore(t, WithLogger(logger))

	_, err = s.Save(ctx, &note{id: "good", Text: "ok"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.json"), []byte("{"), 0o600))

	var seen []string
	all, err := s.FindAll(ctx, func(n *note) { seen = append(seen, n.id) })
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"good"}, seen)
	assert.Contains(t, buf.String(), "model.id=bad")

	_, err = s.Find(ctx, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, xmodel.ErrNotFound)
}

func TestStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Save(ctx, &note{id: "shared", Text: string(rune('a' + i))})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Find(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, got.Text, 1)

	ids, err := s.FindIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, ids)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), encodeNote, decodeNote)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Save(ctx, &note{id: "x"})
	assert.ErrorIs(t, err, xmodel.ErrClosed)
}

func TestNew_Validation(t *testing.T) {
	_, err := New[*note](t.TempDir(), nil, decodeNote)
	assert.ErrorIs(t, err, ErrNilCodec)

	_, err = New(filepath.Join("..", "..", "x"), encodeNote, decodeNote)
	assert.Error(t, err)
}

func TestStore_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s, err := New(dir, encodeNote, decodeNote)
	require.NoError(t, err)
	defer s.Close()
	assert.DirExists(t, dir)
	assert.Equal(t, xmodel.Description{System: "file", Collection: dir}, s.Describe())
}
