package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/internal/directory"
	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/ratelimit"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/internal/validation"
	"github.com/d60-Lab/chirp/pkg/logger"
)

// FeedLimit 列表接口返回的最大条数
const FeedLimit = repository.MaxPageSize

var tracer = otel.Tracer("github.com/d60-Lab/chirp/internal/service")

// PostService 帖子服务
type PostService interface {
	// ListAll 最新的至多 100 条帖子（带作者）
	ListAll(ctx context.Context) ([]model.EnrichedPost, error)
	// ListByAuthor 某作者最新的至多 100 条帖子（带作者）
	ListByAuthor(ctx context.Context, authorID string) ([]model.EnrichedPost, error)
	GetByID(ctx context.Context, id string) (*model.EnrichedPost, error)
	// Create 校验内容、检查限流后落库，返回原始帖子（不带作者）
	Create(ctx context.Context, callerID, content string) (*model.Post, error)
}

// CreatePostInput 发帖参数约束
type CreatePostInput struct {
	Content string `json:"content" validate:"required,min=1,max_utf16=255,emoji"`
}

type postService struct {
	posts   repository.PostRepository
	dir     directory.Directory
	limiter ratelimit.Limiter
}

func NewPostService(posts repository.PostRepository, dir directory.Directory, limiter ratelimit.Limiter) PostService {
	return &postService{posts: posts, dir: dir, limiter: limiter}
}

func (s *postService) ListAll(ctx context.Context) (_ []model.EnrichedPost, err error) {
	ctx, span := tracer.Start(ctx, "PostService.ListAll")
	defer func() { endSpan(span, err) }()

	posts, err := s.posts.FindMany(ctx, repository.PostFilter{}, FeedLimit)
	if err != nil {
		return nil, upstream("store", err)
	}
	span.SetAttributes(attribute.Int("posts.count", len(posts)))
	return s.enrich(ctx, posts)
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string) (_ []model.EnrichedPost, err error) {
	ctx, span := tracer.Start(ctx, "PostService.ListByAuthor", trace.WithAttributes(attribute.String("author.id", authorID)))
	defer func() { endSpan(span, err) }()

	if authorID == "" {
		return nil, NewValidationError("authorId", "Required")
	}
	posts, err := s.posts.FindMany(ctx, repository.PostFilter{AuthorID: authorID}, FeedLimit)
	if err != nil {
		return nil, upstream("store", err)
	}
	return s.enrich(ctx, posts)
}

func (s *postService) GetByID(ctx context.Context, id string) (_ *model.EnrichedPost, err error) {
	ctx, span := tracer.Start(ctx, "PostService.GetByID", trace.WithAttributes(attribute.String("post.id", id)))
	defer func() { endSpan(span, err) }()

	if id == "" {
		return nil, NewValidationError("id", "Required")
	}
	post, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, &NotFoundError{Resource: "post", ID: id}
	}
	if err != nil {
		return nil, upstream("store", err)
	}
	enriched, err := s.enrich(ctx, []*model.Post{post})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

func (s *postService) Create(ctx context.Context, callerID, content string) (_ *model.Post, err error) {
	ctx, span := tracer.Start(ctx, "PostService.Create", trace.WithAttributes(attribute.String("author.id", callerID)))
	defer func() { endSpan(span, err) }()

	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validation.Default().Struct(CreatePostInput{Content: content}); err != nil {
		return nil, &ValidationError{Fields: validation.FieldErrors(err)}
	}

	res, err := s.limiter.Limit(ctx, callerID)
	if err != nil {
		return nil, upstream("ratelimit", err)
	}
	if !res.Allowed {
		logger.Info("post rate limited", zap.String("author_id", callerID), zap.Time("reset", res.Reset))
		return nil, &RateLimitedError{Result: res}
	}

	// 限流额度已经消耗，落库失败也不返还
	post, err := s.posts.Create(ctx, callerID, content)
	if err != nil {
		return nil, upstream("store", err)
	}
	logger.Debug("post created", zap.String("post_id", post.ID), zap.String("author_id", callerID))
	return post, nil
}

func (s *postService) enrich(ctx context.Context, posts []*model.Post) ([]model.EnrichedPost, error) {
	out, err := enrichPosts(ctx, s.dir, posts)
	var ce *ConsistencyError
	if errors.As(err, &ce) {
		logger.Error("post author not resolvable",
			zap.String("post_id", ce.PostID), zap.String("author_id", ce.AuthorID), zap.String("reason", ce.Reason))
	}
	return out, err
}

// endSpan 记录错误并结束 span；校验类错误不标记为失败
func endSpan(span trace.Span, err error) {
	if err != nil && !IsValidationError(err) && !IsNotFound(err) && !IsRateLimited(err) && !errors.Is(err, ErrUnauthenticated) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
