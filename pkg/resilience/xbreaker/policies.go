package xbreaker

// TripFunc 让普通函数满足 TripPolicy
type TripFunc func(Counts) bool

func (f TripFunc) ReadyToTrip(c Counts) bool { return f(c) }

// NewConsecutiveFailures 连续失败 n 次后熔断，n 为 0 按 1 处理
func NewConsecutiveFailures(n uint32) TripFunc {
	n = max(n, 1)
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

// NewFailureRatio 统计窗口内请求不少于 minRequests 且失败占比达到 ratio 时熔断
//
// ratio 限制在 [0, 1]，窗口长度由 WithInterval 决定。
func NewFailureRatio(ratio float64, minRequests uint32) TripFunc {
	ratio = min(max(ratio, 0), 1)
	minRequests = max(minRequests, 1)
	return func(c Counts) bool {
		if c.Requests < minRequests {
			return false
		}
		return float64(c.TotalFailures) >= ratio*float64(c.Requests)
	}
}
