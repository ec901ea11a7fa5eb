package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/chirp/internal/model"
)

// MaxPageSize 单次查询的上限
const MaxPageSize = 100

var ErrPostNotFound = errors.New("post not found")

// PostFilter 为空时查询全部帖子
type PostFilter struct {
	AuthorID string
}

// PostRepository 帖子仓储
type PostRepository interface {
	// Create 插入一条帖子，ID 与创建时间由仓储生成；不做内容校验
	Create(ctx context.Context, authorID, content string) (*model.Post, error)
	// FindMany 按创建时间倒序返回至多 limit 条（limit 超出 1..100 时取 100）
	FindMany(ctx context.Context, filter PostFilter, limit int) ([]*model.Post, error)
	// FindByID 不存在时返回 ErrPostNotFound
	FindByID(ctx context.Context, id string) (*model.Post, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, authorID, content string) (*model.Post, error) {
	p := &model.Post{ID: uuid.New().String(), AuthorID: authorID, Content: content}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postRepository) FindMany(ctx context.Context, filter PostFilter, limit int) ([]*model.Post, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	q := r.db.WithContext(ctx).Model(&model.Post{})
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	res := make([]*model.Post, 0, limit)
	// id 作为同一时间戳下的稳定次序
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
