package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/chirp/internal/model"
)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.Models()...))
	return db
}

// seedPost 直接写入指定创建时间的帖子
func seedPost(t testing.TB, db *gorm.DB, id, authorID string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Post{ID: id, AuthorID: authorID, Content: "🙂", CreatedAt: at}).Error)
}

func TestPostRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	p, err := repo.Create(ctx, "user_a", "🔥🔥")
	require.NoError(t, err)

	assert.Len(t, p.ID, 36)
	assert.Equal(t, "user_a", p.AuthorID)
	assert.Equal(t, "🔥🔥", p.Content)
	assert.True(t, p.CreatedAt.After(before))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Content, got.Content)

	// 内容不唯一
	_, err = repo.Create(ctx, "user_a", "🔥🔥")
	require.NoError(t, err)
}

func TestPostRepository_FindByID_NotFound(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostRepository_FindMany_OrderAndFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seedPost(t, db, "p1", "A", base.Add(10*time.Second))
	seedPost(t, db, "p2", "B", base.Add(20*time.Second))
	seedPost(t, db, "p3", "A", base.Add(30*time.Second))

	all, err := repo.FindMany(context.Background(), PostFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(all))

	byA, err := repo.FindMany(context.Background(), PostFilter{AuthorID: "A"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, ids(byA))

	none, err := repo.FindMany(context.Background(), PostFilter{AuthorID: "nobody"}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepository_FindMany_Cap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < MaxPageSize+20; i++ {
		seedPost(t, db, fmt.Sprintf("p%03d", i), "A", base.Add(time.Duration(i)*time.Second))
	}

	for _, limit := range []int{0, -1, 500} {
		got, err := repo.FindMany(context.Background(), PostFilter{}, limit)
		require.NoError(t, err)
		assert.Len(t, got, MaxPageSize, "limit=%d", limit)
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
		}
	}

	got, err := repo.FindMany(context.Background(), PostFilter{}, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, "p119", got[0].ID)
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &model.User{Username: "alice", ProfileImageURL: "https://img/alice.png"}
	require.NoError(t, repo.Create(ctx, alice))
	assert.NotEmpty(t, alice.ID)
	require.NoError(t, repo.Create(ctx, &model.User{ID: "user_bob", Username: "bob"}))

	// 重名违反唯一索引
	assert.ErrorIs(t, repo.Create(ctx, &model.User{Username: "alice"}), ErrUsernameTaken)

	users, err := repo.ListByIDs(ctx, []string{alice.ID, "user_bob", "user_ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "user_bob", got.ID)

	_, err = repo.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func ids(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
