// Package mq 提供消息传递相关的子包。
//
// 子包列表：
//   - xmessenger: 在单个 Redis pub/sub 频道上复用多个带类型的子频道，
//     消息带发送方 server id，支持定向投递
package mq
