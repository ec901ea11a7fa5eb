package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/chirp/internal/directory"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/ratelimit"
	"github.com/d60-Lab/chirp/internal/repository"
)

// fakePostRepo 内存版仓储
type fakePostRepo struct {
	mu        sync.Mutex
	posts     []*model.Post
	createErr error
	findErr   error
	creates   int
	lastLimit int
	clock     time.Time
}

func (r *fakePostRepo) Create(ctx context.Context, authorID, content string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.clock = r.clock.Add(time.Second)
	p := &model.Post{ID: uuid.NewString(), AuthorID: authorID, Content: content, CreatedAt: r.clock}
	r.posts = append(r.posts, p)
	return p, nil
}

func (r *fakePostRepo) FindMany(ctx context.Context, filter repository.PostFilter, limit int) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*model.Post
	for _, p := range r.posts {
		if filter.AuthorID == "" || p.AuthorID == filter.AuthorID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, p := range r.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrPostNotFound
}

// fakeDirectory 记录调用次数与参数
type fakeDirectory struct {
	profiles map[string]model.AuthorProfile
	err      error
	calls    int
	lastIDs  []string
}

func (d *fakeDirectory) GetUsers(ctx context.Context, ids []string) ([]model.AuthorProfile, error) {
	d.calls++
	d.lastIDs = ids
	if d.err != nil {
		return nil, d.err
	}
	var out []model.AuthorProfile
	for _, id := range ids {
		if p, ok := d.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *fakeDirectory) GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, p := range d.profiles {
		if p.Username == username {
			p := p
			return &p, nil
		}
	}
	return nil, directory.ErrUserNotFound
}

// fakeLimiter 每个 key 放行前 allow 次
type fakeLimiter struct {
	allow int
	err   error
	calls map[string]int
}

func newFakeLimiter(allow int) *fakeLimiter {
	return &fakeLimiter{allow: allow, calls: map[string]int{}}
}

func (l *fakeLimiter) Limit(ctx context.Context, key string) (ratelimit.Result, error) {
	if l.err != nil {
		return ratelimit.Result{}, l.err
	}
	l.calls[key]++
	n := l.calls[key]
	if n > l.allow {
		return ratelimit.Result{Allowed: false, Limit: l.allow, Reset: time.Now().Add(time.Minute)}, nil
	}
	return ratelimit.Result{Allowed: true, Limit: l.allow, Remaining: l.allow - n}, nil
}

func (l *fakeLimiter) total() int {
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}
