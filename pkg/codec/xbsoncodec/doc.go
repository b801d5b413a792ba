// Package xbsoncodec 是 xcodec 的 BSON 实现，文档类型为 bson.D。
//
// 模型 id 保存在 _id 字段，NewWriterFor 会先写入它。读取整数时接受
// int32、int64 与整数值的 double，兼容其他驱动写入的数据。详细 UUID
// 数组保存为 bson.A。
package xbsoncodec
