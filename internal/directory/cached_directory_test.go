package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/chirp/internal/model"
)

type countingDirectory struct {
	profiles map[string]model.AuthorProfile
	err      error
	calls    [][]string
}

func (d *countingDirectory) GetUsers(ctx context.Context, ids []string) ([]model.AuthorProfile, error) {
	d.calls = append(d.calls, ids)
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

func (d *countingDirectory) GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error) {
	for _, p := range d.profiles {
		if p.Username == username {
			p := p
			return &p, nil
		}
	}
	return nil, ErrUserNotFound
}

func newCached(t *testing.T) (*CachedDirectory, *countingDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	next := &countingDirectory{profiles: map[string]model.AuthorProfile{
		"user_a": {ID: "user_a", Username: "alice"},
		"user_b": {ID: "user_b", Username: "bob"},
	}}
	return NewCachedDirectory(next, rdb, time.Minute, "chirp"), next, mr
}

func TestCachedDirectory_OnlyMissesGoUpstream(t *testing.T) {
	d, next, mr := newCached(t)
	ctx := context.Background()

	got, err := d.GetUsers(ctx, []string{"user_a"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, mr.Exists("chirp:user:user_a"))

	got, err = d.GetUsers(ctx, []string{"user_b", "user_a", "user_b"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user_b", got[0].ID)
	assert.Equal(t, "user_a", got[1].ID)

	require.Len(t, next.calls, 2)
	assert.Equal(t, []string{"user_b"}, next.calls[1])
	assert.Equal(t, CacheStats{Hits: 1, Misses: 2, UpstreamCalls: 2}, d.Stats())

	// 全部命中时不回源
	_, err = d.GetUsers(ctx, []string{"user_a", "user_b"})
	require.NoError(t, err)
	assert.Len(t, next.calls, 2)

	d.ResetStats()
	assert.Equal(t, CacheStats{}, d.Stats())
}

func TestCachedDirectory_EntriesExpire(t *testing.T) {
	d, next, mr := newCached(t)
	ctx := context.Background()

	_, err := d.GetUsers(ctx, []string{"user_a"})
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = d.GetUsers(ctx, []string{"user_a"})
	require.NoError(t, err)
	assert.Len(t, next.calls, 2)
}

func TestCachedDirectory_UnknownIDsAreNotCached(t *testing.T) {
	d, next, mr := newCached(t)

	got, err := d.GetUsers(context.Background(), []string{"user_ghost"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, mr.Exists("chirp:user:user_ghost"))
	assert.Len(t, next.calls, 1)
}

func TestCachedDirectory_UpstreamErrorPropagates(t *testing.T) {
	d, next, _ := newCached(t)
	next.err = errors.New("boom")

	_, err := d.GetUsers(context.Background(), []string{"user_a"})
	assert.EqualError(t, err, "boom")
}

func TestCachedDirectory_RedisErrorPropagates(t *testing.T) {
	d, next, mr := newCached(t)
	mr.Close()

	_, err := d.GetUsers(context.Background(), []string{"user_a"})
	assert.Error(t, err)
	assert.Empty(t, next.calls)
}

func TestCachedDirectory_TooManyIDs(t *testing.T) {
	d, next, _ := newCached(t)
	ids := make([]string, MaxIDsPerCall+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("user_%d", i)
	}
	_, err := d.GetUsers(context.Background(), ids)
	assert.ErrorIs(t, err, ErrTooManyIDs)
	assert.Empty(t, next.calls)
}

func TestCachedDirectory_GetByUsernamePassesThrough(t *testing.T) {
	d, _, _ := newCached(t)
	p, err := d.GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "user_b", p.ID)
}
