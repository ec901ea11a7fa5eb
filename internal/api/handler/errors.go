package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/internal/service"
	"github.com/d60-Lab/chirp/pkg/response"
)

// handleServiceError 把服务层错误映射为 HTTP 响应；内部错误不向客户端暴露细节
func handleServiceError(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
		rl *service.RateLimitedError
	)
	switch {
	case errors.As(err, &ve):
		response.ValidationFailed(c, "invalid input", ve.Fields)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.As(err, &nf):
		response.NotFound(c, capitalize(nf.Resource)+" not found")
	case errors.As(err, &rl):
		setRateLimitHeaders(c, rl)
		response.TooManyRequests(c, service.RateLimitedMessage)
	default:
		// ConsistencyError / UpstreamError / 其他
		response.InternalError(c, err)
	}
}

func setRateLimitHeaders(c *gin.Context, rl *service.RateLimitedError) {
	res := rl.Result
	c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	if !res.Reset.IsZero() {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		retry := int(time.Until(res.Reset).Seconds() + 0.999)
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
