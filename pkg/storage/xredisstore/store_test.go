package xredisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/storage/xcache"
)

type player struct {
	id    string
	Name  string
	Coins int64
	Tags  []string
}

func (p *player) ID() string { return p.id }

func encodePlayer(p *player) ([]byte, error) {
	return xjsoncodec.NewWriter().
		WriteString("id", p.id).
		WriteString("name", p.Name).
		WriteInt64("coins", p.Coins).
		WriteStrings("tags", p.Tags).
		End()
}

func decodePlayer(doc []byte) (*player, error) {
	r, err := xjsoncodec.NewReader(doc)
	if err != nil {
		return nil, err
	}
	p := &player{id: r.ReadString("id"), Name: r.ReadString("name"), Coins: r.ReadInt64("coins")}
	p.Tags, _ = r.ReadStrings("tags")
	return p, nil
}

type fixture struct {
	mr    *miniredis.Miniredis
	cache xcache.Redis
	store *Store[*player]
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache, err := xcache.NewRedis(client)
	require.NoError(t, err)
	store, err := New(cache, "players", encodePlayer, decodePlayer, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &fixture{mr: mr, cache: cache, store: store}
}

func TestStore_SaveWritesHashFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Save(ctx, &player{id: "p1", Name: "ann", Coins: 5, Tags: []string{"vip"}})
	require.NoError(t, err)

	assert.Equal(t, `"ann"`, f.mr.HGet("players:p1", "name"))
	assert.Equal(t, `5`, f.mr.HGet("players:p1", "coins"))
	assert.Equal(t, `["vip"]`, f.mr.HGet("players:p1", "tags"))

	got, err := f.store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, &player{id: "p1", Name: "ann", Coins: 5, Tags: []string{"vip"}}, got)
}

func TestStore_SaveReplacesPreviousHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Save(ctx, &player{id: "p1", Tags: []string{"a"}})
	require.NoError(t, err)
	_, err = f.store.Save(ctx, &player{id: "p1", Name: "b"})
	require.NoError(t, err)

	assert.Empty(t, f.mr.HGet("players:p1", "tags"))
	assert.Equal(t, `"b"`, f.mr.HGet("players:p1", "name"))
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Find(ctx, "none")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)

	_, err = f.store.Save(ctx, &player{id: "p1", Name: "x"})
	require.NoError(t, err)

	ok, err := f.store.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := f.store.DeleteAndRetrieve(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "x", removed.Name)
	assert.False(t, f.mr.Exists("players:p1"))

	_, err = f.store.DeleteAndRetrieve(ctx, "p1")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)

	deleted, err := f.store.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = f.store.Find(ctx, "")
	assert.ErrorIs(t, err, xmodel.ErrEmptyID)
}

func TestStore_Expiration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithExpireAfterSave(time.Minute), WithExpireAfterAccess(time.Hour))

	_, err := f.store.Save(ctx, &player{id: "p1"})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, f.mr.TTL("players:p1"))

	_, err = f.store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, f.mr.TTL("players:p1"))

	ttl, err := f.store.TTL(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	f.mr.FastForward(2 * time.Hour)
	_, err = f.store.Find(ctx, "p1")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)

	_, err = f.store.TTL(ctx, "p1")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)
}

func TestStore_BulkReadsRefreshExpiration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithExpireAfterSave(time.Minute), WithExpireAfterAccess(time.Hour))

	_, err := f.store.Save(ctx, &player{id: "p1"})
	require.NoError(t, err)
	_, err = f.store.Save(ctx, &player{id: "p2"})
	require.NoError(t, err)

	all, err := f.store.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, time.Hour, f.mr.TTL("players:p1"))
	assert.Equal(t, time.Hour, f.mr.TTL("players:p2"))

	f.mr.SetTTL("players:p1", time.Minute)
	require.NoError(t, f.store.ForEach(ctx, func(*player) error { return nil }))
	assert.Equal(t, time.Hour, f.mr.TTL("players:p1"))

	// 刚读过的模型不会在 ExpireAfterSave 到期时消失
	f.mr.FastForward(2 * time.Minute)
	ids, err := f.store.FindIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestStore_NoExpirationByDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Save(ctx, &player{id: "p1"})
	require.NoError(t, err)
	ttl, err := f.store.TTL(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestStore_ScanOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithScanCount(2))

	for i := range 5 {
		_, err := f.store.Save(ctx, &player{id: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
	}
	// 其他表和前缀相近的 key 不受影响
	f.mr.HSet("teams:t1", "name", `"x"`)
	f.mr.HSet("playersX:1", "name", `"x"`)

	ids, err := f.store.FindIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p0", "p1", "p2", "p3", "p4"}, ids)

	var loaded int
	all, err := f.store.FindAll(ctx, func(*player) { loaded++ })
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, 5, loaded)

	stop := errors.New("stop")
	var seen int
	err = f.store.ForEach(ctx, func(*player) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)

	require.NoError(t, f.store.DeleteAll(ctx))
	ids, err = f.store.FindIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.True(t, f.mr.Exists("teams:t1"))
	assert.True(t, f.mr.Exists("playersX:1"))
}

func TestStore_GlobCharsInTable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache, err := xcache.NewRedis(client)
	require.NoError(t, err)

	s, err := New(cache, "a*", encodePlayer, decodePlayer)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save(ctx, &player{id: "1"})
	require.NoError(t, err)
	mr.HSet("abc:2", "name", `"x"`)

	ids, err := s.FindIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Save(ctx, &player{id: "p1", Coins: 0})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := f.store.Update(ctx, "p1", func(p *player) (*player, error) {
					p.Coins++
					return p, nil
				})
				if errors.Is(err, xcache.ErrLockFailed) {
					time.Sleep(time.Millisecond)
					continue
				}
				assert.NoError(t, err)
				return
			}
		}()
	}
	wg.Wait()

	got, err := f.store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Coins)
	assert.False(t, f.mr.Exists("lock:players:p1"))
}

func TestStore_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.store.Update(ctx, "missing", func(p *player) (*player, error) { return p, nil })
	assert.ErrorIs(t, err, xmodel.ErrNotFound)

	_, err = f.store.Update(ctx, "x", nil)
	assert.ErrorIs(t, err, ErrNilUpdate)

	_, err = f.store.Save(ctx, &player{id: "p1", Name: "keep"})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = f.store.Update(ctx, "p1", func(p *player) (*player, error) {
		p.Name = "changed"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = f.store.Update(ctx, "p1", func(p *player) (*player, error) {
		return &player{id: "other"}, nil
	})
	require.Error(t, err)

	got, err := f.store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Name)
}

func TestStore_NearCache(t *testing.T) {
	ctx := context.Background()
	mem, err := xcache.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	f := newFixture(t, WithNearCache(mem))
	_, err = f.store.Save(ctx, &player{id: "p1", Name: "v1"})
	require.NoError(t, err)
	mem.Wait()

	// 绕过 Store 修改 Redis，近端缓存仍返回旧值
	f.mr.HSet("players:p1", "name", `"v2"`)
	got, err := f.store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Name)

	// 本进程的写操作使近端缓存失效
	_, err = f.store.Delete(ctx, "p1")
	require.NoError(t, err)
	_, err = f.store.Find(ctx, "p1")
	assert.ErrorIs(t, err, xmodel.ErrNotFound)
}

func TestStore_NearCacheIgnoresStaleRead(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache, err := xcache.NewRedis(client)
	require.NoError(t, err)
	mem, err := xcache.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	// 在 HGETALL 之后、回填近端缓存之前写入新值
	var store *Store[*player]
	var once sync.Once
	decode := func(doc []byte) (*player, error) {
		p, err := decodePlayer(doc)
		if err == nil && p.Name == "old" {
			once.Do(func() { _, err = store.Save(ctx, &player{id: p.id, Name: "new"}) })
		}
		return p, err
	}
	store, err = New(cache, "players", encodePlayer, decode, WithNearCache(mem))
	require.NoError(t, err)
	defer store.Close()

	mr.HSet("players:p1", "id", `"p1"`, "name", `"old"`)
	got, err := store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)
	assert.Equal(t, `"new"`, mr.HGet("players:p1", "name"))

	mem.Wait()
	got, err = store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
}

func TestStore_CorruptHashField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mr.HSet("players:bad", "name", `{not json`)

	_, err := f.store.Find(ctx, "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, xjsoncodec.ErrInvalidJSON)
}

func TestStore_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache, err := xcache.NewRedis(client)
	require.NoError(t, err)

	s, err := New(cache, "t", func(*player) ([]byte, error) { return []byte(`{}`), nil }, decodePlayer)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save(ctx, &player{id: "x"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestStore_Instrument(t *testing.T) {
	ctx := context.Background()
	var slow []xmodel.SlowOpInfo
	var mu sync.Mutex
	f := newFixture(t, WithInstrument(
		xmodel.WithSlowThreshold(time.Nanosecond),
		xmodel.WithSlowHook(func(_ context.Context, info xmodel.SlowOpInfo) {
			mu.Lock()
			slow = append(slow, info)
			mu.Unlock()
		}),
	))

	_, err := f.store.Save(ctx, &player{id: "p1"})
	require.NoError(t, err)
	_, err = f.store.Find(ctx, "missing")
	require.ErrorIs(t, err, xmodel.ErrNotFound)

	stats := f.store.Stats()
	assert.Equal(t, int64(2), stats.Operations)
	assert.Zero(t, stats.Errors)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, slow)
	assert.Equal(t, "save", slow[0].Operation)
	assert.Equal(t, "players", slow[0].Collection)
}

func TestStore_Health(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Health(ctx))

	f.mr.SetError("ERR loading")
	require.Error(t, f.store.Health(ctx))
	f.mr.SetError("")

	stats := f.store.Stats()
	assert.Equal(t, int64(2), stats.PingCount)
	assert.Equal(t, int64(1), stats.PingErrors)
	assert.Zero(t, stats.Operations)
}

func TestNew_Validation(t *testing.T) {
	_, err := New[*player](nil, "t", encodePlayer, decodePlayer)
	assert.ErrorIs(t, err, ErrNilCache)

	f := newFixture(t)
	_, err = New(f.cache, "", encodePlayer, decodePlayer)
	assert.ErrorIs(t, err, ErrEmptyTable)
	_, err = New[*player](f.cache, "t", nil, decodePlayer)
	assert.ErrorIs(t, err, ErrNilCodec)
	// 表 a 的 a:* 会扫到表 a:b 的 key
	_, err = New(f.cache, "players:archived", encodePlayer, decodePlayer)
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestStore_AsFallbackMain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local := xmodel.NewMapRepository[*player]()

	repo, err := xmodel.NewFallbackRepository[*player](f.store, local)
	require.NoError(t, err)

	_, err = repo.SaveInFallback(ctx, &player{id: "p1", Name: "local"})
	require.NoError(t, err)
	require.NoError(t, repo.UploadAll(ctx, nil))

	assert.Zero(t, local.Len())
	got, err := f.store.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "local", got.Name)
}
