// Package xrotate 提供基于 lumberjack 的日志文件轮转，作为 xlog 的输出目标。
//
//	r, err := xrotate.NewLumberjack("/var/log/xstore/xstorectl.log",
//		xrotate.WithMaxSize(50),
//		xrotate.WithMaxBackups(3),
//	)
package xrotate
