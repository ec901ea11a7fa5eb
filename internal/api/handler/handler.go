package handler

import (
	"github.com/d60-Lab/chirp/internal/service"
)

// Handler HTTP 处理器集合
type Handler struct {
	postService    service.PostService
	profileService service.ProfileService
	// authService 仅 local 目录模式下存在
	authService service.AuthService
}

func NewHandler(posts service.PostService, profiles service.ProfileService, auth service.AuthService) *Handler {
	return &Handler{postService: posts, profileService: profiles, authService: auth}
}

// LocalAuthEnabled 是否挂载本地注册/登录接口
func (h *Handler) LocalAuthEnabled() bool { return h.authService != nil }
