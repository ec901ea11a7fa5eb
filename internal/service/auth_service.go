package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
	"github.com/d60-Lab/chirp/internal/validation"
	"github.com/d60-Lab/chirp/pkg/auth"
	"github.com/d60-Lab/chirp/pkg/logger"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// RegisterInput 本地注册参数
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,url"`
}

// AuthService 本地身份服务（directory.mode=local 时替代外部身份服务）
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.AuthorProfile, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cost   int
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager) AuthService {
	return &authService{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.AuthorProfile, error) {
	if err := validation.Default().Struct(in); err != nil {
		return nil, &ValidationError{Fields: validation.FieldErrors(err)}
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, NewValidationError("username", "Username is already taken")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, upstream("store", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: in.Username, ProfileImageURL: in.ProfileImageURL, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); errors.Is(err, repository.ErrUsernameTaken) {
		// 并发注册同名，唯一索引兜底
		return nil, NewValidationError("username", "Username is already taken")
	} else if err != nil {
		return nil, upstream("store", err)
	}
	logger.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	p := u.Profile()
	return &p, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", upstream("store", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Generate(u.ID, u.Username)
}
