package xmongostore

import "github.com/omeyang/xstore/pkg/model/xmodel"

// Option 配置 Store
type Option func(*options)

type options struct {
	batchSize  int32
	instrument []xmodel.InstrumentOption
}

// DefaultBatchSize 遍历时每批拉取的文档数
const DefaultBatchSize int32 = 256

// WithBatchSize 设置遍历游标的批大小
func WithBatchSize(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithInstrument 为每个操作打开 span，记录失败日志并检测慢操作
func WithInstrument(opts ...xmodel.InstrumentOption) Option {
	return func(o *options) { o.instrument = append(o.instrument, opts...) }
}
