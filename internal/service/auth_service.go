package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"spotrent/internal/db"
	apperrors "spotrent/internal/errors"
	"spotrent/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password, name, phone, role string) (*db.User, error)
}

type authService struct {
	repo *repository.UserRepository
}

func NewAuthService(repo *repository.UserRepository) AuthService {
	return &authService{repo: repo}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.Unauthorized("invalid credentials")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.Unauthorized("invalid credentials")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *authService) Register(ctx context.Context, email, password, name, phone, role string) (*db.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password cannot be empty")
	}
	if role != db.RoleOwner && role != db.RoleRenter {
		return nil, apperrors.Validation("role must be owner or renter")
	}

	user := &db.User{Email: email, Name: name, Phone: phone, Role: role}
	if err := s.repo.CreateUser(ctx, user, password); err != nil {
		return nil, err
	}
	return user, nil
}
