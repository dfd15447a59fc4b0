package services

import (
	"context"
	"time"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type userUSStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type userService struct {
	Store    userUSStore
	clockNow func() time.Time
}

func NewUserService(store userUSStore) *userService {
	return &userService{
		Store:    store,
		clockNow: time.Now,
	}
}

func (s *userService) CreateUser(ctx context.Context, uid, email string, req dto.CreateUserRequest) (*models.User, error) {
	// Get logger from context - already has uid, email, request_id, method, path
	log := logger.FromContext(ctx)

	now := s.clockNow()
	user := &models.User{
		UID:             uid,
		Email:           email,
		FullName:        req.FullName,
		ProfileImageURL: req.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.Store.CreateUser(ctx, user)
	if err != nil {
		log.Error("failed to create user in store", "error", err)
		return nil, err
	}

	log.Info("user created successfully", "full_name", req.FullName)
	log.Debug("user created with full details", "user", user)

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return s.Store.GetUser(ctx, uid)
}
