package repository

import (
	"context"
	"errors"
	"time"

	authdomain "kanban-mail-backend/internal/auth/domain"

	"gorm.io/gorm"
)

// UserRepository reads accounts and keeps their Gmail tokens current
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
	FindByEmail(ctx context.Context, email string) (*authdomain.User, error)
	UpdateGmailTokens(ctx context.Context, userID, accessToken, refreshToken string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpdateGmailTokens stores a refreshed token pair. An empty refresh token
// keeps the stored one since Google only returns it on first consent.
func (r *userRepository) UpdateGmailTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	updates := map[string]interface{}{
		"gmail_access_token": accessToken,
		"updated_at":         time.Now().UTC(),
	}
	if refreshToken != "" {
		updates["gmail_refresh_token"] = refreshToken
	}
	return r.db.WithContext(ctx).Model(&authdomain.User{}).Where("id = ?", userID).Updates(updates).Error
}
