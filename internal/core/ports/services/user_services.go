package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// UserSvcFacade defines user registration and authentication.
type UserSvcFacade interface {
	// Register creates a new user with a bcrypt-hashed password.
	Register(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)

	// Authenticate verifies the credentials and returns the user on success.
	Authenticate(ctx context.Context, username string, password string) (*domain.User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}
