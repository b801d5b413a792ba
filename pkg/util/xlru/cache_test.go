package xlru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_InvalidConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Size: 0},
		{Size: MaxSize + 1},
		{Size: 1, TTL: -time.Second},
	} {
		_, err := New[string, int](cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}
}

func TestCache_BasicOps(t *testing.T) {
	c, err := New[string, int](Config{Size: 2})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Set("a", 1))
	assert.False(t, c.Set("b", 2))

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// a 刚被访问，淘汰 b
	assert.True(t, c.Set("c", 3))
	assert.False(t, c.Contains("b"))
	assert.ElementsMatch(t, []string{"a", "c"}, c.Keys())
	assert.ElementsMatch(t, []int{1, 3}, c.Values())

	v, ok = c.Take("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Take("a")
	assert.False(t, ok)

	assert.True(t, c.Delete("c"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_OnEvicted(t *testing.T) {
	var evicted []string
	c, err := New(Config{Size: 1}, WithOnEvicted(func(k string, _ int) {
		evicted = append(evicted, k)
	}))
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, []string{"a"}, evicted)
}

func TestCache_TTL(t *testing.T) {
	c, err := New[string, int](Config{Size: 10, TTL: 20 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	assert.Eventually(t, func() bool { return !c.Contains("a") }, time.Second, 5*time.Millisecond)
}

func TestCache_Close(t *testing.T) {
	c, err := New[string, int](Config{Size: 10, TTL: time.Minute})
	require.NoError(t, err)

	c.Set("a", 1)
	c.Close()
	c.Close()

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.False(t, c.Set("b", 2))
	assert.Nil(t, c.Keys())
	assert.Equal(t, 0, c.Len())
}
