package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/proposal-agent/internal/config"
	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/types"
)

// UserStore is the persistence surface for account operations.
type UserStore interface {
	CreateUser(ctx context.Context, input db.UserCreateInput) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Domain   *string `json:"domain,omitempty"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs a user with a fresh token.
type AuthResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

// UserService provides account registration and login.
type UserService struct {
	store          UserStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a user service.
func NewUserService(store UserStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{store: store, passwordConfig: passwordConfig}
}

// Register creates a new account. The optional domain must be a member
// of the closed domain set.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*db.User, error) {
	if req.Domain != nil && !types.ValidDomain(*req.Domain) {
		return nil, &ErrValidation{Field: "domain", Message: fmt.Sprintf("unknown domain %q", *req.Domain)}
	}

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, db.UserCreateInput{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         db.RoleUser,
		Domain:       req.Domain,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user by email and password. Unknown emails and
// wrong passwords produce the same error.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// GetUser loads a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &ErrUserNotFound{UserID: id}
	}
	return user, nil
}
