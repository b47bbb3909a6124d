package service

import (
	"context"
	"fmt"
	"log/slog"

	"task-service/internal/models"
	"task-service/internal/policy"
	"task-service/internal/repository"
)

// UserService is the directory mutation guard: every role change and
// deletion passes the policy's self-protection checks before storage is
// touched.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns every user's directory view. Admin only; no pagination.
func (s *UserService) List(ctx context.Context, actor policy.Actor) ([]models.DirectoryUser, error) {
	if err := policy.CanManageUsers(actor); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	views := make([]models.DirectoryUser, 0, len(users))
	for i := range users {
		views = append(views, users[i].Directory())
	}
	return views, nil
}

// ChangeRole updates another user's role. Acting on one's own id is
// rejected before storage so an admin cannot demote themselves into a
// lockout.
func (s *UserService) ChangeRole(ctx context.Context, actor policy.Actor, targetID, role string) (*models.DirectoryUser, error) {
	if err := policy.CheckRoleChange(actor, targetID, role); err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateUserRole(ctx, targetID, policy.Role(role))
	if err != nil {
		s.logger.Error("Failed to update user role", "user_id", targetID, "error", err)
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	s.logger.Info("User role changed", "user_id", targetID, "role", role, "actor_id", actor.ID)
	view := updated.Directory()
	return &view, nil
}

// Delete removes a user. Tasks referencing the user are left in place;
// their owner or assignee reference dangles from then on.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, targetID string) error {
	if err := policy.CheckUserDelete(actor, targetID); err != nil {
		return err
	}

	deleted, err := s.users.DeleteUser(ctx, targetID)
	if err != nil {
		s.logger.Error("Failed to delete user", "user_id", targetID, "error", err)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.logger.Info("User deleted", "user_id", targetID, "actor_id", actor.ID)
	return nil
}
