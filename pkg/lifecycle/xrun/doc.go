// Package xrun 基于 [errgroup] 与 context 协调多个长期运行的服务。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("listen"), xrun.WithLogger(logger))
//	g.Go("printer", func(ctx context.Context) error {
//		for {
//			select {
//			case <-ctx.Done():
//				return ctx.Err()
//			case msg := <-msgs:
//				print(msg)
//			}
//		}
//	})
//	g.Go("config-watch", watch)
//	err := g.Wait()
//
// 任一服务返回错误时其余服务的 ctx 被取消，Wait 返回第一个错误。
// Cancel(nil) 用于正常提前结束，Wait 返回 nil。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
