// Package xjsoncodec 是 xcodec 的 JSON 实现，文档类型为 []byte。
//
// 读取使用 gjson 按字段查询，写入使用 sjson 逐字段追加，字段名中的
// . * ? 等字符会被转义，按字面处理。整数按原文解析，int64 全范围无精度损失。
//
// Fields 与 Compose 在 JSON 对象与"字段名到原始值"映射之间互转，
// Redis 哈希存储使用这一映射。
package xjsoncodec
