package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/response"
)

type createPostRequest struct {
	Content string `json:"content"`
}

// ListPosts 公共时间线
// @Summary 最新帖子（最多 100 条）
// @Tags 帖子
// @Produce json
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Failure 500 {object} response.Response
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.postService.ListAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, posts)
}

// GetPost 单条帖子
// @Summary 按 ID 查询帖子
// @Tags 帖子
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.EnrichedPost}
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.postService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, post)
}

// ListAuthorPosts 某用户的帖子
// @Summary 按作者查询帖子（最多 100 条）
// @Tags 帖子
// @Produce json
// @Param author_id path string true "作者ID"
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/authors/{author_id}/posts [get]
func (h *Handler) ListAuthorPosts(c *gin.Context) {
	posts, err := h.postService.ListByAuthor(c.Request.Context(), c.Param("author_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, posts)
}

// CreatePost 发帖（只允许 emoji）
// @Summary 发布帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.postService.Create(c.Request.Context(), middleware.CurrentUserID(c), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, post)
}
