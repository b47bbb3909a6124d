// Package repository defines the storage contracts implemented by the
// postgres and memory backends. Task reads and writes are pre-filtered by
// the policy-derived scope; the stores never trust client-supplied owner
// or assignee values.
package repository

import (
	"context"

	"task-service/internal/models"
	"task-service/internal/policy"
)

// TaskFilter narrows and pages a task listing. A zero Priority means no
// priority filter.
type TaskFilter struct {
	Priority models.Priority
	Offset   int
	Limit    int
}

// UserRepository persists user identities. Lookup methods return
// (nil, nil) when no row matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateUserRole returns the updated user, or (nil, nil) if the id
	// does not exist.
	UpdateUserRole(ctx context.Context, id string, role policy.Role) (*models.User, error)
	// DeleteUser reports whether a user was removed. Tasks referencing
	// the user are left untouched; their references dangle.
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// TaskRepository persists tasks. Every method taking a scope applies it
// as a hard predicate: a task outside the scope behaves as if it does not
// exist. Listings are ordered by creation time descending, stable.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	// GetTask returns the populated view, or (nil, nil) on a scoped miss.
	GetTask(ctx context.Context, scope policy.TaskScope, id string) (*models.TaskView, error)
	// ListTasks returns one page of views plus the total count for the
	// same scope and filter.
	ListTasks(ctx context.Context, scope policy.TaskScope, filter TaskFilter) ([]models.TaskView, int, error)
	// UpdateTask applies the column->value updates to the scoped task and
	// returns the updated view, or (nil, nil) on a scoped miss.
	UpdateTask(ctx context.Context, scope policy.TaskScope, id string, updates map[string]interface{}) (*models.TaskView, error)
	// DeleteTask reports whether a scoped task was removed.
	DeleteTask(ctx context.Context, scope policy.TaskScope, id string) (bool, error)
}

// Update keys understood by TaskRepository.UpdateTask.
const (
	ColTitle       = "title"
	ColDescription = "description"
	ColDueDate     = "due_date"
	ColPriority    = "priority"
	ColStatus      = "status"
	ColAssignedTo  = "assigned_to"
)
