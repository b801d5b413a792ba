package xconf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testConfig struct {
	Backend string `koanf:"backend"`
	Redis   struct {
		Addr string `koanf:"addr"`
		DB   int    `koanf:"db"`
	} `koanf:"redis"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNew_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xstore.yaml")
	writeFile(t, path, "backend: redis\nredis:\n  addr: localhost:6379\n  db: 2\n")

	cfg, raw, err := Load[testConfig](path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, FormatYAML, raw.Format())
	assert.Equal(t, path, raw.Path())
	assert.Equal(t, "redis", raw.Client().String("backend"))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("config.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	bad := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, bad, "{not json")
	_, err = New(bad)
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"backend":"memory"}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Client().String("backend"))
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)

	empty, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	var out testConfig
	require.NoError(t, empty.Unmarshal("", &out))
	assert.Empty(t, out.Backend)

	_, err = NewFromBytes(nil, Format("ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xstore.yaml")
	writeFile(t, path, "backend: redis\nredis:\n  addr: localhost:6379\n")

	environ := func() []string {
		return []string{"XSTORE_REDIS__ADDR=10.0.0.1:6379", "XSTORE_BACKEND=mongo", "HOME=/root"}
	}
	cfg, err := New(path, WithEnvPrefix("XSTORE_"), func(o *Options) { o.environ = environ })
	require.NoError(t, err)

	var out testConfig
	require.NoError(t, cfg.Unmarshal("", &out))
	assert.Equal(t, "mongo", out.Backend)
	assert.Equal(t, "10.0.0.1:6379", out.Redis.Addr)
	assert.False(t, cfg.Client().Exists("home"))
}

func TestReload_KeepsOldOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xstore.json")
	writeFile(t, path, `{"backend":"file"}`)
	cfg, err := New(path)
	require.NoError(t, err)

	writeFile(t, path, `{"backend":"bolt"}`)
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "bolt", cfg.Client().String("backend"))

	writeFile(t, path, `{broken`)
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "bolt", cfg.Client().String("backend"))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xstore.yaml")
	writeFile(t, path, "backend: memory\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		latest string
	)
	reloaded := make(chan struct{}, 4)
	w, err := Watch(cfg, func(c Config, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		latest = c.Client().String("backend")
		mu.Unlock()
		reloaded <- struct{}{}
	}, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()

	writeFile(t, path, "backend: redis\n")

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("watch callback not called")
	}
	mu.Lock()
	assert.Equal(t, "redis", latest)
	mu.Unlock()
}

func TestWatch_Rejects(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestWatch_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xstore.yaml")
	writeFile(t, path, "backend: memory\n")
	cfg, err := New(path)
	require.NoError(t, err)

	w, err := Watch(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
