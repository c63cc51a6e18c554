package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken = errors.New("invalid or expired ID token")
	ErrUserNotFound = errors.New("user not found")
)

// Identity is what the auth provider vouches for after verifying a token.
type Identity struct {
	UID   string
	Email string
}

// TokenVerifier checks an ID token issued by the auth provider.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// AuthService maps verified identities to user profiles.
type AuthService struct {
	userRepo repository.UserRepository
	verifier TokenVerifier
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, verifier TokenVerifier) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		verifier: verifier,
	}
}

// Profile is a user together with the roles they hold.
type Profile struct {
	User  *models.UserInfo
	Roles []models.Role
}

// SignIn verifies the ID token and returns the matching profile.
func (s *AuthService) SignIn(ctx context.Context, idToken string) (*Profile, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return s.GetProfile(ctx, identity.UID)
}

// GetProfile retrieves a user and their roles by ID.
func (s *AuthService) GetProfile(ctx context.Context, id string) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	roles, err := s.userRepo.ListRoles(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return &Profile{User: user, Roles: roles}, nil
}
