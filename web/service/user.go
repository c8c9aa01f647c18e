package service

import (
	"context"

	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"

	"gorm.io/gorm"
)

// UserService loads accounts for the authorization guard.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByID returns the user or NotFound.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("error.userNotFound")
		}
		return nil, common.Internal(err)
	}
	return &u, nil
}

// GetByUsername returns the user or NotFound.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, common.NotFound("error.userNotFound")
		}
		return nil, common.Internal(err)
	}
	return &u, nil
}
