package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authdomain "kanban-mail-backend/internal/auth/domain"
	"kanban-mail-backend/internal/auth/repository"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrUserNotFound  = errors.New("user not found")
	ErrDeviceMissing = errors.New("device token not registered")
)

// AuthUsecase validates access tokens issued by the sign-in service and
// manages push devices of authenticated users
type AuthUsecase interface {
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error)
	RegisterDevice(ctx context.Context, userID, token, deviceInfo string) (int, error)
	UnregisterDevice(ctx context.Context, userID, token string) error
}

type authUsecase struct {
	userRepo  repository.UserRepository
	fcmRepo   repository.FCMTokenRepository
	jwtSecret []byte
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, fcmRepo repository.FCMTokenRepository, jwtSecret string) AuthUsecase {
	return &authUsecase{
		userRepo:  userRepo,
		fcmRepo:   fcmRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// RegisterDevice saves a device token and returns the user's device count
func (u *authUsecase) RegisterDevice(ctx context.Context, userID, token, deviceInfo string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrDeviceMissing
	}
	if err := u.fcmRepo.SaveToken(ctx, userID, token, deviceInfo); err != nil {
		return 0, fmt.Errorf("save device token: %w", err)
	}
	return u.fcmRepo.CountForUser(ctx, userID)
}

func (u *authUsecase) UnregisterDevice(ctx context.Context, userID, token string) error {
	deleted, err := u.fcmRepo.DeleteUserToken(ctx, userID, token)
	if err != nil {
		return fmt.Errorf("delete device token: %w", err)
	}
	if !deleted {
		return ErrDeviceMissing
	}
	return nil
}
