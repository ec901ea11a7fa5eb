// Package ratelimit 实现按主体的滑动窗口限流，计数全部保存在 Redis。
package ratelimit

import (
	"context"
	"time"
)

// Result 一次限流检查的结果
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset 最早一条计数滑出窗口的时间
	Reset time.Time
}

// Limiter 检查 key 是否还能再执行一次操作；允许时同时计入本次
type Limiter interface {
	Limit(ctx context.Context, key string) (Result, error)
}
