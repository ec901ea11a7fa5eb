// Package directory 封装外部身份服务，只向上层暴露作者公开信息。
package directory

import (
	"context"
	"errors"

	"github.com/d60-Lab/chirp/internal/model"
)

// MaxIDsPerCall 身份服务单次批量查询的上限
const MaxIDsPerCall = 100

var (
	ErrTooManyIDs   = errors.New("directory: too many ids in one call")
	ErrUserNotFound = errors.New("directory: user not found")
)

// Directory 用户目录
type Directory interface {
	// GetUsers 批量查询作者；找不到的 ID 不返回，也不报错
	GetUsers(ctx context.Context, ids []string) ([]model.AuthorProfile, error)
	GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error)
}

// dedupe 去重并保持顺序，丢弃空串
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func prepareIDs(ids []string) ([]string, error) {
	ids = dedupe(ids)
	if len(ids) > MaxIDsPerCall {
		return nil, ErrTooManyIDs
	}
	return ids, nil
}
