// Package xcodec 定义与文档格式无关的模型编解码接口。
//
// 具体格式只需实现 [Source] 与 [Sink] 两个小接口，类型化读写、UUID、时间戳
// 以及嵌套对象和集合的处理由 [Reader]、[Writer] 与泛型函数统一提供：
//
//	w := xjsoncodec.NewWriter()
//	w.WriteString("name", u.Name).
//		WriteDetailedUUID("owner", u.Owner).
//		WriteTime("created", u.Created)
//	xcodec.WriteCollection(w, "tags", u.Tags, tagSerializer)
//	doc, err := w.End()
//
// 约定：
//   - 时间以毫秒时间戳保存
//   - 详细 UUID 保存为 {least, most} 两个 int64
//   - nil 切片、uuid.Nil 与零值时间视为缺失，不写入字段；数组内的 uuid.Nil 保留
//   - Writer 只记录第一个错误
package xcodec
