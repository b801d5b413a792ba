package xmodel

import (
	"context"
	"reflect"
)

// Model 是带字符串标识的存储单元
type Model interface {
	ID() string
}

// Repository 存储同一类型模型的仓库
//
// 按 id 查找不到时 Find 与 DeleteAndRetrieve 返回 [ErrNotFound]；
// FindAll 与 FindIDs 在仓库为空时返回空切片而不是 nil。
type Repository[T Model] interface {
	Find(ctx context.Context, id string) (T, error)
	Exists(ctx context.Context, id string) (bool, error)

	// Save 新增或覆盖，返回保存的模型
	Save(ctx context.Context, model T) (T, error)

	// Delete 报告是否确实删除了数据
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAndRetrieve(ctx context.Context, id string) (T, error)
	DeleteAll(ctx context.Context) error

	// FindAll 加载全部模型，postLoad 可为 nil，在每个模型加入结果前调用
	FindAll(ctx context.Context, postLoad func(T)) ([]T, error)
	FindIDs(ctx context.Context) ([]string, error)

	// ForEach 逐个回调，fn 返回错误时立即停止并返回该错误
	ForEach(ctx context.Context, fn func(T) error) error
	ForEachID(ctx context.Context, fn func(string) error) error
}

// Builder 构建仓库
type Builder[T Model] interface {
	Build() (Repository[T], error)
}

// BuilderFunc 函数形式的 Builder
type BuilderFunc[T Model] func() (Repository[T], error)

// Build 实现 Builder
func (f BuilderFunc[T]) Build() (Repository[T], error) {
	return f()
}

// BuildWithFallback 构建主仓库并与 fallback 组合
func BuildWithFallback[T Model](builder Builder[T], fallback Repository[T]) (*FallbackRepository[T], error) {
	if builder == nil {
		return nil, ErrNilRepository
	}
	main, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return NewFallbackRepository(main, fallback)
}

// CheckModel 校验待保存的模型：不能是 nil，id 不能为空
func CheckModel[T Model](model T) error {
	if IsNil(model) {
		return ErrNilModel
	}
	return CheckID(model.ID())
}

// CheckID 校验 id 非空
func CheckID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return nil
}

// IsNil 判断模型是否为 nil，包括装在接口里的 nil 指针
func IsNil[T Model](model T) bool {
	v := any(model)
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// Zero 返回 T 的零值
func Zero[T any]() T {
	var zero T
	return zero
}
