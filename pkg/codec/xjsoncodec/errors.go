package xjsoncodec

import "errors"

var (
	// ErrInvalidJSON 输入不是合法的 JSON
	ErrInvalidJSON = errors.New("xjsoncodec: invalid json")

	// ErrNotObject 顶层不是 JSON 对象
	ErrNotObject = errors.New("xjsoncodec: document is not a json object")

	// ErrNonFinite NaN 与 Inf 无法用 JSON 表示
	ErrNonFinite = errors.New("xjsoncodec: non-finite number")

	// ErrMarshal 结构体编解码失败
	ErrMarshal = errors.New("xjsoncodec: marshal failed")
)
