// Package xconf 基于 koanf 加载 YAML/JSON 配置，并支持 fsnotify 热重载。
//
//	type Config struct {
//		Backend string `koanf:"backend"`
//	}
//	cfg, raw, err := xconf.Load[Config]("xstore.yaml")
//
//	w, err := xconf.Watch(raw, func(c xconf.Config, err error) {
//		// 重新读取日志级别等可热更新的字段
//	})
//	defer w.Stop()
package xconf
