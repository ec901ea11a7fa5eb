package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/d60-Lab/chirp/internal/ratelimit"
)

// RateLimitedMessage 返回给用户的等待提示
const RateLimitedMessage = "You've created too many posts. Please wait a while before creating more"

var ErrUnauthenticated = errors.New("authentication required")

// ValidationError 输入不满足约束；Fields 为 字段 -> 提示
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// NotFoundError 资源不存在
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Resource, e.ID) }

// RateLimitedError 调用方超出发帖频率
type RateLimitedError struct {
	Result ratelimit.Result
}

func (e *RateLimitedError) Error() string { return RateLimitedMessage }

// ConsistencyError 帖子的作者在用户目录中不存在或缺少用户名
type ConsistencyError struct {
	PostID   string
	AuthorID string
	Reason   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("author for post %s not resolvable (%s): %s", e.PostID, e.AuthorID, e.Reason)
}

// UpstreamError 存储、用户目录或限流服务调用失败
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsRateLimited(err error) bool {
	var e *RateLimitedError
	return errors.As(err, &e)
}

func IsConsistencyError(err error) bool {
	var e *ConsistencyError
	return errors.As(err, &e)
}

func IsUpstreamError(err error) bool {
	var e *UpstreamError
	return errors.As(err, &e)
}
