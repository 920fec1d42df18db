package auth

import (
	"context"
	"fmt"

	"github.com/matiasvera/clinic-api/internal/model"
	"github.com/matiasvera/clinic-api/internal/repository"
	"github.com/matiasvera/clinic-api/pkg/auth"
	apperrors "github.com/matiasvera/clinic-api/pkg/errors"
	"github.com/matiasvera/clinic-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	tokens *auth.Manager
	hasher *security.Hasher
}

func NewService(users repository.UserRepository, tokens *auth.Manager, hasher *security.Hasher) *Service {
	return &Service{users: users, tokens: tokens, hasher: hasher}
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password return the same error so the endpoint does not leak which
// accounts exist.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if !user.Active {
		return nil, apperrors.Unauthorized(fmt.Errorf("account disabled"))
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to generate token: %w", err))
	}

	user.PasswordHash = ""
	return &model.LoginResponse{
		AccessToken: token,
		User:        user,
	}, nil
}

// Register creates a staff account. Only admins reach this endpoint; the
// router enforces the role.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}
