package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"
)

// UserService registers and looks up chat users. Users are created lazily on
// their first update; there is no signup flow of its own.
type UserService interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	GetOrCreate(ctx context.Context, id int64, username string) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) GetOrCreate(ctx context.Context, id int64, username string) (*model.User, error) {
	return s.userRepo.GetOrCreateUser(ctx, id, username)
}
