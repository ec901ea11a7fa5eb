package directory

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/chirp/internal/model"
)

// CachedDirectory 在 Redis 里缓存作者快照，只把未命中的 ID 交给下游目录。
// 只用于 feedbench 对比缓存前后的读延迟，服务本身每次读都直接查目录。
type CachedDirectory struct {
	next   Directory
	cache  redis.Cmdable
	ttl    time.Duration
	prefix string

	hits     atomic.Int64
	misses   atomic.Int64
	upstream atomic.Int64
}

// CacheStats 命中统计
type CacheStats struct {
	Hits          int64
	Misses        int64
	UpstreamCalls int64
}

func NewCachedDirectory(next Directory, cache redis.Cmdable, ttl time.Duration, prefix string) *CachedDirectory {
	return &CachedDirectory{next: next, cache: cache, ttl: ttl, prefix: prefix}
}

func (d *CachedDirectory) key(id string) string { return d.prefix + ":user:" + id }

func (d *CachedDirectory) GetUsers(ctx context.Context, ids []string) ([]model.AuthorProfile, error) {
	ids, err := prepareIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.AuthorProfile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = d.key(id)
	}

	found := make(map[string]model.AuthorProfile, len(ids))
	vals, err := d.cache.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p model.AuthorProfile
		if json.Unmarshal([]byte(s), &p) == nil && p.ID == ids[i] {
			found[p.ID] = p
		}
	}

	missing := make([]string, 0, len(ids)-len(found))
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	d.hits.Add(int64(len(found)))
	d.misses.Add(int64(len(missing)))

	if len(missing) > 0 {
		d.upstream.Add(1)
		profiles, err := d.next.GetUsers(ctx, missing)
		if err != nil {
			return nil, err
		}
		pipe := d.cache.Pipeline()
		for _, p := range profiles {
			found[p.ID] = p
			if payload, err := json.Marshal(p); err == nil {
				pipe.Set(ctx, d.key(p.ID), payload, d.ttl)
			}
		}
		if len(profiles) > 0 {
			if _, err := pipe.Exec(ctx); err != nil {
				return nil, err
			}
		}
	}

	out := make([]model.AuthorProfile, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByUsername 不缓存，用户名可能被改
func (d *CachedDirectory) GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error) {
	return d.next.GetByUsername(ctx, username)
}

func (d *CachedDirectory) Stats() CacheStats {
	return CacheStats{Hits: d.hits.Load(), Misses: d.misses.Load(), UpstreamCalls: d.upstream.Load()}
}

func (d *CachedDirectory) ResetStats() {
	d.hits.Store(0)
	d.misses.Store(0)
	d.upstream.Store(0)
}
