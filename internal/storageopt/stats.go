package storageopt

import "sync/atomic"

// Stats 是存储组件的累计统计
type Stats struct {
	Operations int64
	Errors     int64
	SlowOps    int64
	PingCount  int64
	PingErrors int64
}

// counters 各项计数，全部原子更新
type counters struct {
	ops, errs, slow, pings, pingErrs atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Operations: c.ops.Load(),
		Errors:     c.errs.Load(),
		SlowOps:    c.slow.Load(),
		PingCount:  c.pings.Load(),
		PingErrors: c.pingErrs.Load(),
	}
}
