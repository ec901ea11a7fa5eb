package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/chirp/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPThrottle 按客户端 IP 的令牌桶，挡住单个来源的请求洪峰。
// 与发帖限流无关：发帖额度按用户计数，保存在 Redis。
type IPThrottle struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

func NewIPThrottle(rps float64, burst int) *IPThrottle {
	if burst <= 0 {
		burst = 1
	}
	return &IPThrottle{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  3 * time.Minute,
	}
}

func (t *IPThrottle) allow(ip string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup 清理长时间没有请求的 IP
func (t *IPThrottle) Cleanup(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for ip, v := range t.visitors {
		if now.Sub(v.lastSeen) > t.idleTTL {
			delete(t.visitors, ip)
			removed++
		}
	}
	return removed
}

// Run 周期性清理，直到 stop 关闭
func (t *IPThrottle) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(t.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t.Cleanup(now)
		}
	}
}

func (t *IPThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.allow(c.ClientIP(), time.Now()) {
			response.TooManyRequests(c, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
