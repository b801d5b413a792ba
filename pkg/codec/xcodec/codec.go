package xcodec

// Serializer 把值编码为文档 D
type Serializer[T, D any] func(T) (D, error)

// Deserializer 从文档 D 解码值
type Deserializer[T, D any] func(D) (T, error)

// Source 由具体文档格式实现的最小读取接口，Reader 在此之上提供完整的字段读取
//
// 字段不存在或类型不符时返回 ok=false。
type Source[D any] interface {
	Raw() D
	Has(field string) bool
	String(field string) (string, bool)
	Int64(field string) (int64, bool)
	Float64(field string) (float64, bool)
	Bool(field string) (bool, bool)
	Document(field string) (D, bool)
	Strings(field string) ([]string, bool)
	Documents(field string) ([]D, bool)

	// Open 把子文档包装为 Source
	Open(doc D) Source[D]
}

// Sink 由具体文档格式实现的最小写入接口，Writer 在此之上提供完整的字段写入
type Sink[D any] interface {
	SetString(field, value string) error
	SetInt64(field string, value int64) error
	SetFloat64(field string, value float64) error
	SetBool(field string, value bool) error
	SetDocument(field string, doc D) error
	SetStrings(field string, values []string) error
	SetDocuments(field string, docs []D) error

	// NewSink 创建同格式的空文档，用于构造子文档
	NewSink() Sink[D]

	Current() D
}
