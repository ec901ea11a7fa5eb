package directory

import (
	"context"
	"errors"

	"github.com/d60-Lab/chirp/internal/model"
	"github.com/d60-Lab/chirp/internal/repository"
)

// LocalDirectory 基于本地 users 表的目录，开发环境和压测使用
type LocalDirectory struct {
	users repository.UserRepository
}

func NewLocalDirectory(users repository.UserRepository) *LocalDirectory {
	return &LocalDirectory{users: users}
}

func (d *LocalDirectory) GetUsers(ctx context.Context, ids []string) ([]model.AuthorProfile, error) {
	ids, err := prepareIDs(ids)
	if err != nil {
		return nil, err
	}
	users, err := d.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.AuthorProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}

func (d *LocalDirectory) GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error) {
	u, err := d.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}
