package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-service/internal/apperror"
	"task-service/internal/models"
	"task-service/internal/policy"
	"task-service/internal/repository"
)

const defaultPageSize = 10

var (
	ErrTaskNotFound     = apperror.NotFound("Task not found")
	ErrAssigneeRequired = apperror.Validation("Assigned user is required")
	ErrAssigneeNotFound = apperror.Validation("Assignee not found")
	ErrInvalidPriority  = apperror.Validation("Invalid priority")
	ErrInvalidStatus    = apperror.Validation("Invalid status")
)

type TaskService struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, logger *slog.Logger) *TaskService {
	return &TaskService{tasks: tasks, users: users, logger: logger}
}

// Create stores a new task owned by the acting admin. The assignee must
// resolve to an existing user at write time; after that no referential
// integrity is enforced.
func (s *TaskService) Create(ctx context.Context, actor policy.Actor, req *models.CreateTaskRequest) (*models.TaskView, error) {
	if err := policy.CanCreateTask(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("Title is required")
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		priority = models.Priority(req.Priority)
		if !priority.Valid() {
			return nil, ErrInvalidPriority
		}
	}

	if req.AssignedTo == "" {
		return nil, ErrAssigneeRequired
	}
	assignee, err := s.users.GetUserByID(ctx, req.AssignedTo)
	if err != nil {
		s.logger.Error("Failed to resolve assignee", "assignee_id", req.AssignedTo, "error", err)
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}
	if assignee == nil {
		return nil, ErrAssigneeNotFound
	}

	now := time.Now()
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		Status:      models.StatusPending,
		OwnerID:     actor.ID,
		AssigneeID:  assignee.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		s.logger.Error("Failed to create task", "owner_id", actor.ID, "error", err)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created", "task_id", task.ID, "owner_id", actor.ID, "assignee_id", assignee.ID)
	return s.mustView(ctx, actor, task.ID)
}

// ListQuery carries the client's paging and filter parameters.
type ListQuery struct {
	Page     int
	Limit    int
	Priority string
}

// List returns one page of tasks visible to the actor: owned tasks for
// admins, assigned tasks for everyone else.
func (s *TaskService) List(ctx context.Context, actor policy.Actor, q ListQuery) (*models.TaskPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}

	filter := repository.TaskFilter{
		Priority: models.Priority(q.Priority),
		Offset:   (page - 1) * limit,
		Limit:    limit,
	}

	views, total, err := s.tasks.ListTasks(ctx, policy.ScopeFor(actor), filter)
	if err != nil {
		s.logger.Error("Failed to list tasks", "actor_id", actor.ID, "error", err)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if views == nil {
		views = []models.TaskView{}
	}

	return &models.TaskPage{
		Tasks: views,
		Page:  page,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}, nil
}

// Get returns a single task if it is inside the actor's scope. A task
// outside the scope reads as not found, never as forbidden, so a denial
// does not confirm the task exists.
func (s *TaskService) Get(ctx context.Context, actor policy.Actor, id string) (*models.TaskView, error) {
	view, err := s.tasks.GetTask(ctx, policy.ScopeFor(actor), id)
	if err != nil {
		s.logger.Error("Failed to get task", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if view == nil {
		return nil, ErrTaskNotFound
	}
	return view, nil
}

// Update applies a partial update. The request is rejected whole if any
// field falls outside the actor's allowlist; there is no partial apply.
// Fields arrive as raw JSON so presence is distinguishable from a zero
// value.
func (s *TaskService) Update(ctx context.Context, actor policy.Actor, id string, fields map[string]json.RawMessage) (*models.TaskView, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	if err := policy.CheckTaskUpdate(actor, names); err != nil {
		return nil, err
	}

	updates, err := s.decodeUpdates(ctx, fields)
	if err != nil {
		return nil, err
	}

	view, err := s.tasks.UpdateTask(ctx, policy.ScopeFor(actor), id, updates)
	if err != nil {
		s.logger.Error("Failed to update task", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if view == nil {
		return nil, ErrTaskNotFound
	}

	s.logger.Info("Task updated", "task_id", id, "actor_id", actor.ID)
	return view, nil
}

// Delete removes an owned task. Admin-only, and scoped: an existing task
// owned by someone else deletes as not found.
func (s *TaskService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.CanDeleteTask(actor); err != nil {
		return err
	}

	deleted, err := s.tasks.DeleteTask(ctx, policy.ScopeFor(actor), id)
	if err != nil {
		s.logger.Error("Failed to delete task", "task_id", id, "error", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}

	s.logger.Info("Task deleted", "task_id", id, "actor_id", actor.ID)
	return nil
}

// decodeUpdates turns allowlisted wire fields into store updates,
// validating values and resolving a changed assignee.
func (s *TaskService) decodeUpdates(ctx context.Context, fields map[string]json.RawMessage) (map[string]interface{}, error) {
	updates := make(map[string]interface{}, len(fields))

	for name, raw := range fields {
		switch name {
		case policy.FieldTitle:
			value, err := decodeString(raw)
			if err != nil {
				return nil, apperror.Validation("Invalid title")
			}
			updates[repository.ColTitle] = value
		case policy.FieldDescription:
			value, err := decodeString(raw)
			if err != nil {
				return nil, apperror.Validation("Invalid description")
			}
			updates[repository.ColDescription] = value
		case policy.FieldDueDate:
			var value *time.Time
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, apperror.Validation("Invalid due date")
			}
			updates[repository.ColDueDate] = value
		case policy.FieldPriority:
			value, err := decodeString(raw)
			if err != nil || !models.Priority(value).Valid() {
				return nil, ErrInvalidPriority
			}
			updates[repository.ColPriority] = value
		case policy.FieldStatus:
			value, err := decodeString(raw)
			if err != nil || !models.Status(value).Valid() {
				return nil, ErrInvalidStatus
			}
			updates[repository.ColStatus] = value
		case policy.FieldAssignedTo:
			value, err := decodeString(raw)
			if err != nil || value == "" {
				return nil, ErrAssigneeRequired
			}
			assignee, err := s.users.GetUserByID(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve assignee: %w", err)
			}
			if assignee == nil {
				return nil, ErrAssigneeNotFound
			}
			updates[repository.ColAssignedTo] = assignee.ID
		}
	}

	return updates, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (s *TaskService) mustView(ctx context.Context, actor policy.Actor, id string) (*models.TaskView, error) {
	view, err := s.tasks.GetTask(ctx, policy.ScopeFor(actor), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if view == nil {
		return nil, ErrTaskNotFound
	}
	return view, nil
}
