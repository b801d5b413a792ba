package xfilestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"

	"github.com/omeyang/xstore/pkg/codec/xcodec"
	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/observability/xlog"
	"github.com/omeyang/xstore/pkg/util/xfile"
	"github.com/omeyang/xstore/pkg/util/xkeylock"
)

// Ext 模型文件扩展名
const Ext = ".json"

var (
	_ xmodel.Repository[xmodel.Model] = (*Store[xmodel.Model])(nil)
	_ xmodel.Describer                = (*Store[xmodel.Model])(nil)
)

// Store 每个模型一个 JSON 文件的仓库：<dir>/<id>.json
//
// 写入先落临时文件再 rename，读者不会看到半个文件。同一 id 的写操作
// 经进程内按 key 加锁串行化；跨进程共享同一目录时不保证 DeleteAndRetrieve 的原子性。
type Store[T xmodel.Model] struct {
	dir    string
	ser    xcodec.Serializer[T, []byte]
	de     xcodec.Deserializer[T, []byte]
	opts   options
	locks  xkeylock.Locker
	closed atomic.Bool
}

// New 创建仓库，目录不存在时自动创建
func New[T xmodel.Model](dir string, ser xcodec.Serializer[T, []byte], de xcodec.Deserializer[T, []byte], opts ...Option) (*Store[T], error) {
	if ser == nil || de == nil {
		return nil, ErrNilCodec
	}
	clean, err := xfile.SanitizePath(dir)
	if err != nil {
		return nil, fmt.Errorf("xfilestore: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := xfile.EnsureDirWithPerm(clean, o.dirMode); err != nil {
		return nil, fmt.Errorf("xfilestore: %w", err)
	}
	locks, err := xkeylock.New()
	if err != nil {
		return nil, fmt.Errorf("xfilestore: %w", err)
	}
	return &Store[T]{dir: clean, ser: ser, de: de, opts: o, locks: locks}, nil
}

// Dir 返回存储目录
func (s *Store[T]) Dir() string { return s.dir }

// Describe 实现 xmodel.Describer
func (s *Store[T]) Describe() xmodel.Description {
	return xmodel.Description{System: "file", Collection: s.dir}
}

// Close 释放锁表，幂等；等待中的写操作返回错误
func (s *Store[T]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.locks.Close()
}

func (s *Store[T]) logger() xlog.Logger {
	if s.opts.logger != nil {
		return s.opts.logger
	}
	return xlog.Default()
}

func (s *Store[T]) check(ctx context.Context) error {
	if s.closed.Load() {
		return xmodel.ErrClosed
	}
	return ctx.Err()
}

// path 把 id 映射为文件路径，拒绝含分隔符或 .. 的 id
func (s *Store[T]) path(id string) (string, error) {
	if err := xmodel.CheckID(id); err != nil {
		return "", err
	}
	p, err := xfile.SafeJoin(s.dir, id+Ext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return p, nil
}

// lock 获取 id 的进程内写锁
func (s *Store[T]) lock(ctx context.Context, id string) (func(), error) {
	h, err := s.locks.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, xkeylock.ErrClosed) {
			return nil, xmodel.ErrClosed
		}
		return nil, err
	}
	return func() { _ = h.Unlock() }, nil
}

func (s *Store[T]) read(id, path string) (T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return xmodel.Zero[T](), xmodel.NotFound(id)
		}
		return xmodel.Zero[T](), fmt.Errorf("xfilestore: read %s: %w", id, err)
	}
	m, err := s.de(data)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xfilestore: decode %s: %w", id, err)
	}
	return m, nil
}

func (s *Store[T]) Find(ctx context.Context, id string) (T, error) {
	path, err := s.path(id)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	if err := s.check(ctx); err != nil {
		return xmodel.Zero[T](), err
	}
	return s.read(id, path)
}

func (s *Store[T]) Exists(ctx context.Context, id string) (bool, error) {
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	if err := s.check(ctx); err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("xfilestore: stat %s: %w", id, err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *Store[T]) Save(ctx context.Context, model T) (T, error) {
	if err := xmodel.CheckModel(model); err != nil {
		return xmodel.Zero[T](), err
	}
	id := model.ID()
	path, err := s.path(id)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	if err := s.check(ctx); err != nil {
		return xmodel.Zero[T](), err
	}

	data, err := s.ser(model)
	if err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xfilestore: encode %s: %w", id, err)
	}
	if s.opts.pretty {
		data = xjsoncodec.Pretty(data)
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	defer unlock()
	if err := xfile.WriteFileAtomic(path, data, s.opts.fileMode); err != nil {
		return xmodel.Zero[T](), fmt.Errorf("xfilestore: save %s: %w", id, err)
	}
	return model, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	if err := s.check(ctx); err != nil {
		return false, err
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()
	return s.remove(id, path)
}

func (s *Store[T]) remove(id, path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("xfilestore: delete %s: %w", id, err)
	}
	return true, nil
}

// DeleteAndRetrieve 读取与删除在同一把 id 锁内完成
func (s *Store[T]) DeleteAndRetrieve(ctx context.Context, id string) (T, error) {
	path, err := s.path(id)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	if err := s.check(ctx); err != nil {
		return xmodel.Zero[T](), err
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	defer unlock()

	m, err := s.read(id, path)
	if err != nil {
		return xmodel.Zero[T](), err
	}
	if _, err := s.remove(id, path); err != nil {
		return xmodel.Zero[T](), err
	}
	return m, nil
}

// DeleteAll 只删除目录第一层的 .json 普通文件，子目录与其他文件保留
func (s *Store[T]) DeleteAll(ctx context.Context) error {
	ids, err := s.FindIDs(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if _, err := s.Delete(ctx, id); err != nil {
			if ctx.Err() != nil {
				return errors.Join(append(errs, err)...)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FindAll 跳过损坏的文件并记录警告
func (s *Store[T]) FindAll(ctx context.Context, postLoad func(T)) ([]T, error) {
	out := []T{}
	err := s.ForEach(ctx, func(m T) error {
		if postLoad != nil {
			postLoad(m)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindIDs 按文件名排序返回，忽略子目录、非 .json 文件与写入中的临时文件
func (s *Store[T]) FindIDs(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("xfilestore: list %s: %w", s.dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || xfile.IsTempFile(name) {
			continue
		}
		id, ok := strings.CutSuffix(name, Ext)
		if !ok || id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ForEach 遍历时被并发删除的文件直接跳过，损坏文件记录警告后跳过
func (s *Store[T]) ForEach(ctx context.Context, fn func(T) error) error {
	return s.ForEachID(ctx, func(id string) error {
		m, err := s.Find(ctx, id)
		switch {
		case err == nil:
			return fn(m)
		case xmodel.IsNotFound(err):
			return nil
		case ctx.Err() != nil, errors.Is(err, xmodel.ErrClosed):
			return err
		default:
			s.logger().Warn(ctx, "skip unreadable model file",
				xlog.Component("xfilestore"), xlog.ModelID(id), xlog.Err(err))
			return nil
		}
	})
}

func (s *Store[T]) ForEachID(ctx context.Context, fn func(string) error) error {
	ids, err := s.FindIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}
