package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-service/internal/apperror"
	"task-service/internal/models"
	"task-service/internal/policy"
	"task-service/internal/repository"
	"task-service/pkg/jwt"
	"task-service/pkg/password"
)

var (
	ErrEmailTaken         = apperror.Conflict("User already exists")
	ErrInvalidCredentials = apperror.Validation("Invalid credentials")
	ErrInvalidToken       = apperror.Authentication("Token is not valid")
	ErrUserNotFound       = apperror.NotFound("User not found")
)

type AuthService struct {
	users     repository.UserRepository
	tokens    *jwt.Manager
	passwords *password.Hasher
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *jwt.Manager,
	passwords *password.Hasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a user and returns a fresh session token. An
// unrecognized role value is silently coerced to "user"; only role
// updates reject unknown roles.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	s.logger.Debug("Attempting registration", "email", req.Email)

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, apperror.Validation("Name, email and password are required")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check existing user", "email", email, "error", err)
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		s.logger.Warn("User already exists", "email", email)
		return nil, ErrEmailTaken
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", "email", email, "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         policy.NormalizeRole(req.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		s.logger.Error("Failed to create user", "email", email, "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", email, "role", user.Role)
	return &models.AuthResponse{Token: token, User: user.Public()}, nil
}

// Login verifies credentials and mints a session token. A missing email
// and a wrong password produce the same error so neither case is
// distinguishable from outside.
func (s *AuthService) Login(ctx context.Context, email, pass string) (*models.AuthResponse, error) {
	s.logger.Debug("Attempting login", "email", email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to get user by email", "email", email, "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user == nil {
		s.logger.Warn("Login for unknown email", "email", email)
		return nil, ErrInvalidCredentials
	}

	if !s.passwords.Check(pass, user.PasswordHash) {
		s.logger.Warn("Invalid password", "email", email)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "email", email)
	return &models.AuthResponse{Token: token, User: user.Public()}, nil
}

// Verify validates the token signature and expiry and returns the actor
// it encodes. The role claim is the snapshot taken at issuance; it is not
// re-checked against the stored role, so a demoted admin keeps admin
// claims until the token expires.
func (s *AuthService) Verify(token string) (policy.Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Warn("Token verification failed", "error", err)
		return policy.Actor{}, ErrInvalidToken
	}
	return policy.Actor{ID: claims.UserID, Role: policy.Role(claims.Role)}, nil
}

// CurrentUser loads the stored user for an authenticated actor.
func (s *AuthService) CurrentUser(ctx context.Context, actorID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		s.logger.Error("Failed to get user by ID", "user_id", actorID, "error", err)
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
