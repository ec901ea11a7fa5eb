package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/chirp/internal/directory"
	"github.com/d60-Lab/chirp/internal/model"
)

// ProfileService 个人主页：按用户名查询作者
type ProfileService interface {
	GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error)
}

type profileService struct{ dir directory.Directory }

func NewProfileService(dir directory.Directory) ProfileService { return &profileService{dir: dir} }

func (s *profileService) GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error) {
	if username == "" {
		return nil, NewValidationError("username", "Required")
	}
	p, err := s.dir.GetByUsername(ctx, username)
	if errors.Is(err, directory.ErrUserNotFound) {
		return nil, &NotFoundError{Resource: "user", ID: username}
	}
	if err != nil {
		return nil, upstream("directory", err)
	}
	return p, nil
}
