// Package auth issues tokens. Authorization decisions downstream trust the
// claims minted here; the engine performs no further identity checks.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/pkg/jwt"
)

type Service struct {
	users auth.UserRepository
	jwt   jwt.Service
}

func NewService(users auth.UserRepository, jwtService jwt.Service) *Service {
	return &Service{users: users, jwt: jwtService}
}

// Login verifies the credentials and issues an access/refresh token pair.
// Managers get their reports' employee ids baked into the access token so
// ownership checks need no extra query per request.
func (s *Service) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return auth.LoginResponse{}, auth.ErrInvalidCredentials
		}
		return auth.LoginResponse{}, err
	}
	if !user.IsActive {
		return auth.LoginResponse{}, auth.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return auth.LoginResponse{}, auth.ErrInvalidCredentials
	}

	var managed []string
	if user.Role == auth.RoleManager && user.EmployeeID != nil {
		managed, err = s.users.ListManagedEmployeeIDs(ctx, *user.EmployeeID)
		if err != nil {
			return auth.LoginResponse{}, err
		}
	}

	accessToken, accessExpiresAt, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.EmployeeID, user.Role, managed)
	if err != nil {
		return auth.LoginResponse{}, err
	}
	refreshToken, refreshExpiresAt, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return auth.LoginResponse{}, err
	}

	return auth.LoginResponse{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
		Role:             string(user.Role),
	}, nil
}
