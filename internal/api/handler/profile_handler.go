package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/chirp/pkg/response"
)

// GetProfile 个人主页
// @Summary 按用户名查询作者
// @Tags 用户
// @Produce json
// @Param username path string true "用户名"
// @Success 200 {object} response.Response{data=model.AuthorProfile}
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{username} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.profileService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, p)
}
