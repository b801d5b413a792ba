package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/internal/pool.(*ConnPool).tryDial"),
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/maintnotifications.(*CircuitBreakerManager).cleanupLoop"),
		goleak.IgnoreTopFunction("time.Sleep"),
	)
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xstorectl"}, args...), stdin, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xstorectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// fileConfig 返回 file 与 bolt 后端都指向临时目录的配置
func fileConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeConfig(t, "backend: file\n"+
		"log:\n  level: error\n"+
		"file:\n  dir: "+filepath.Join(dir, "records")+"\n"+
		"bolt:\n  path: "+filepath.Join(dir, "xstore.db")+"\n")
}
