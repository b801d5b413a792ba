package xredisstore

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// escapeGlob 转义 MATCH 模式中的通配符
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// scan 以 SCAN 遍历匹配的 key，每批回调一次
//
// SCAN 可能重复返回同一个 key，这里去重。集群模式下逐个 master 扫描，
// 批次内的 key 可能属于不同 slot。
func scan(ctx context.Context, client redis.UniversalClient, match string, count int64, fn func(keys []string) error) error {
	seen := make(map[string]struct{})
	dedup := func(keys []string) error {
		fresh := keys[:0]
		for _, k := range keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			fresh = append(fresh, k)
		}
		if len(fresh) == 0 {
			return nil
		}
		return fn(fresh)
	}

	if cc, ok := client.(*redis.ClusterClient); ok {
		// ForEachMaster 并发执行各节点，回调需要串行化
		var mu sync.Mutex
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return scanNode(ctx, node, match, count, func(keys []string) error {
				mu.Lock()
				defer mu.Unlock()
				return dedup(keys)
			})
		})
	}
	return scanNode(ctx, client, match, count, dedup)
}

func scanNode(ctx context.Context, client redis.Cmdable, match string, count int64, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, match, count).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
