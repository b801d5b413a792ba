package xconf

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 文件变更并重载后调用，err 非 nil 表示重载失败或监视出错
type WatchCallback func(cfg Config, err error)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchOption 监视器选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件所在目录，文件变化时自动 Reload
//
// 监视目录而不是文件本身：编辑器和 ConfigMap 更新常用 rename 替换文件。
type Watcher struct {
	cfg      *koanfConfig
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	done    chan struct{}
	exited  chan struct{}
}

// Watch 创建并启动监视器，调用方负责 Stop
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, ErrUnsupportedConfig
	}
	if kc.path == "" {
		return nil, ErrNotReloadable
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(kc.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}

	w := &Watcher{
		cfg:      kc,
		fs:       fsw,
		callback: callback,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	go w.run()
	return w, nil
}

// Stop 停止监视并等待后台 goroutine 退出，可重复调用
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fs.Close()
	<-w.exited
	return err
}

func (w *Watcher) run() {
	defer close(w.exited)
	filename := filepath.Base(w.cfg.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == filename &&
				event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.callback != nil {
				w.callback(w.cfg, fmt.Errorf("xconf: watch error: %w", err))
			}
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	err := w.cfg.Reload()
	if w.callback != nil {
		w.callback(w.cfg, err)
	}
}
