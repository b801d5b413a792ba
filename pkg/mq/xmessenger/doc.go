// Package xmessenger 基于 Redis Pub/Sub 的跨实例消息。
//
// 所有子频道共用一个 Redis 父频道，消息以 JSON 外壳传输：
//
//	{"channel":"invalidate","server":"node-a","targetServer":"node-b","message":{...}}
//
// 用法：
//
//	m, err := xmessenger.New(ctx, client, "xstore", "node-a")
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	ch, err := xmessenger.Register[Invalidate](m, "invalidate")
//	ch.AddListener(func(ctx context.Context, msg xmessenger.Message[Invalidate]) {
//		cache.Delete(msg.Payload.ID)
//	})
//	err = ch.Send(ctx, Invalidate{ID: "u1"})
//
// 自己发出的消息不回调本地监听器；带 targetServer 的消息只有目标实例处理。
// 监听器在 xpool worker 上执行，worker 数大于 1 时不保证回调顺序。
package xmessenger
