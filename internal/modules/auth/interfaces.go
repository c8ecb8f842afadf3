package auth

import (
	"context"

	"qaforum/internal/domain"
)

// UserRepository defines the user lookups the auth service needs
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenService interface {
	GenerateToken(userID int64, email string) (string, error)
}
