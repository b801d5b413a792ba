package xboltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
)

type item struct {
	Key   string `json:"id"`
	Price int64  `json:"price"`
}

func (i *item) ID() string { return i.Key }

func openDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newStore(t *testing.T, db *bolt.DB, bucket string) *Store[*item] {
	t.Helper()
	s, err := New(db, bucket, xjsoncodec.Marshal[*item](), xjsoncodec.Unmarshal[*item]())
	require.NoError(t, err)
	return s
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, openDB(t), "items")

	_, err := s.Find(ctx, "a")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)

	_, err = s.Save(ctx, &item{Key: "a", Price: 10})
	require.NoError(t, err)

	got, err := s.Find(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Price)

	ok, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := s.DeleteAndRetrieve(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Key)

	deleted, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.DeleteAndRetrieve(ctx, "a")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)
}

func TestStore_BucketsAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	a := newStore(t, db, "a")
	b := newStore(t, db, "b")

	_, err := a.Save(ctx, &item{Key: "x"})
	require.NoError(t, err)

	ok, err := b.Exists(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.DeleteAll(ctx))
	ok, err = a.Exists(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Listing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, openDB(t), "items")

	ids, err := s.FindIDs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Save(ctx, &item{Key: id})
		require.NoError(t, err)
	}

	ids, err = s.FindIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	var loaded int
	all, err := s.FindAll(ctx, func(*item) { loaded++ })
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, loaded)

	// 回调中写回同一仓库不会死锁
	require.NoError(t, s.ForEach(ctx, func(i *item) error {
		i.Price++
		_, err := s.Save(ctx, i)
		return err
	}))
	got, err := s.Find(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Price)

	require.NoError(t, s.DeleteAll(ctx))
	ids, err = s.FindIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "p.db")

	db, err := Open(path)
	require.NoError(t, err)
	s := newStore(t, db, "items")
	_, err = s.Save(ctx, &item{Key: "keep", Price: 7})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, WithReadOnly())
	require.NoError(t, err)
	defer db.Close()
	s = newStore(t, db, "items")
	got, err := s.Find(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Price)
}

func TestNew_Validation(t *testing.T) {
	db := openDB(t)
	_, err := New[*item](nil, "x", xjsoncodec.Marshal[*item](), xjsoncodec.Unmarshal[*item]())
	assert.ErrorIs(t, err, ErrNilDB)
	_, err = New[*item](db, "", xjsoncodec.Marshal[*item](), xjsoncodec.Unmarshal[*item]())
	assert.ErrorIs(t, err, ErrEmptyBucket)
	_, err = New[*item](db, "x", nil, nil)
	assert.ErrorIs(t, err, ErrNilCodec)
}

func TestStore_Describe(t *testing.T) {
	s := newStore(t, openDB(t), "items")
	assert.Equal(t, xmodel.Description{System: "bbolt", Collection: "items"}, s.Describe())
}
