// Package storageopt 各存储后端共用的观测配置。
//
// Instrument 把 span、计数、慢操作检测和失败日志收拢到一次 Begin/end，
// Ping 在 HealthTimeout 内执行健康检查并单独计数。
// SlowDetector 的异步钩子跑在 xpool 上，队列满时丢弃通知。
package storageopt
