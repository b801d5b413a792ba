// Package xmemstore 提供基于 LRU 的内存仓库，支持容量上限与写入后过期。
//
//	cache, err := xmemstore.New[*User](
//		xmemstore.WithSize[*User](1000),
//		xmemstore.WithTTL[*User](10*time.Minute),
//	)
//	if err != nil {
//		return err
//	}
//	defer cache.Close()
//
//	repo, err := xmodel.NewFallbackRepository[*User](mongoRepo, cache)
//
// Find 会刷新 LRU 顺序，Exists 不会。
package xmemstore
