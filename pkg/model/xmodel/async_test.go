package xmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_InlineExecutor(t *testing.T) {
	f := Go(nil, func() (int, error) { return 42, nil })
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-f.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestGo_Rejected(t *testing.T) {
	reject := ExecutorFunc(func(func()) bool { return false })
	_, err := Go(reject, func() (int, error) { return 1, nil }).Wait(context.Background())
	assert.ErrorIs(t, err, ErrExecutorRejected)
}

func TestGo_Panic(t *testing.T) {
	_, err := Go(InlineExecutor, func() (int, error) { panic("boom") }).Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFuture_WaitContext(t *testing.T) {
	release := make(chan struct{})
	f := Go(InlineExecutor, func() (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestPoolExecutor(t *testing.T) {
	exec, err := NewPoolExecutor(2, 8)
	require.NoError(t, err)

	repo := NewMapRepository[*user]()
	async, err := NewAsync[*user](repo, exec)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = async.SaveAsync(ctx, newUser("u1", "ada")).Wait(ctx)
	require.NoError(t, err)

	got, err := async.FindAsync(ctx, "u1").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)

	ok, err := async.ExistsAsync(ctx, "u1").Wait(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := async.FindIDsAsync(ctx).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)

	all, err := async.FindAllAsync(ctx, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	var visited int
	_, err = async.ForEachAsync(ctx, func(*user) error { visited++; return nil }).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, visited)

	removed, err := async.DeleteAndRetrieveAsync(ctx, "u1").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", removed.ID())

	deleted, err := async.DeleteAsync(ctx, "u1").Wait(ctx)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = async.DeleteAllAsync(ctx).Wait(ctx)
	require.NoError(t, err)

	require.NoError(t, exec.Close())
	_, err = async.FindAsync(ctx, "u1").Wait(ctx)
	assert.ErrorIs(t, err, ErrExecutorRejected)
}

func TestNewAsync_NilRepo(t *testing.T) {
	_, err := NewAsync[*user](nil, nil)
	assert.ErrorIs(t, err, ErrNilRepository)
}
