package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"task-service/internal/models"
	"task-service/internal/policy"
	"task-service/internal/repository"
)

type storedTask struct {
	task models.Task
	seq  int
}

// TaskRepository keeps tasks in memory. It resolves owner and assignee
// views through the user store at read time, so deleting a user makes the
// corresponding view fields nil, matching the LEFT JOIN behavior of the
// postgres backend.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]storedTask
	seq   int
	users *UserRepository
}

func NewTaskRepository(users *UserRepository) *TaskRepository {
	return &TaskRepository{
		tasks: make(map[string]storedTask),
		users: users,
	}
}

func (r *TaskRepository) CreateTask(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.tasks[task.ID] = storedTask{task: *task, seq: r.seq}
	return nil
}

func inScope(task models.Task, scope policy.TaskScope) bool {
	if scope.OwnerID != "" {
		return task.OwnerID == scope.OwnerID
	}
	return task.AssigneeID == scope.AssigneeID
}

func (r *TaskRepository) GetTask(_ context.Context, scope policy.TaskScope, id string) (*models.TaskView, error) {
	r.mu.RLock()
	stored, ok := r.tasks[id]
	r.mu.RUnlock()
	if !ok || !inScope(stored.task, scope) {
		return nil, nil
	}
	view := r.view(stored.task)
	return &view, nil
}

func (r *TaskRepository) ListTasks(_ context.Context, scope policy.TaskScope, filter repository.TaskFilter) ([]models.TaskView, int, error) {
	r.mu.RLock()
	var matched []storedTask
	for _, stored := range r.tasks {
		if !inScope(stored.task, scope) {
			continue
		}
		if filter.Priority != "" && stored.task.Priority != filter.Priority {
			continue
		}
		matched = append(matched, stored)
	}
	r.mu.RUnlock()

	// Newest first; insertion order breaks creation-time ties so paging
	// is stable.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].task.CreatedAt.Equal(matched[j].task.CreatedAt) {
			return matched[i].task.CreatedAt.After(matched[j].task.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}

	var views []models.TaskView
	for _, stored := range matched[start:end] {
		views = append(views, r.view(stored.task))
	}
	return views, total, nil
}

func (r *TaskRepository) UpdateTask(_ context.Context, scope policy.TaskScope, id string, updates map[string]interface{}) (*models.TaskView, error) {
	r.mu.Lock()
	stored, ok := r.tasks[id]
	if !ok || !inScope(stored.task, scope) {
		r.mu.Unlock()
		return nil, nil
	}

	task := stored.task
	for column, value := range updates {
		switch column {
		case repository.ColTitle:
			task.Title = value.(string)
		case repository.ColDescription:
			task.Description = value.(string)
		case repository.ColDueDate:
			if value == nil {
				task.DueDate = nil
			} else {
				task.DueDate = value.(*time.Time)
			}
		case repository.ColPriority:
			task.Priority = models.Priority(value.(string))
		case repository.ColStatus:
			task.Status = models.Status(value.(string))
		case repository.ColAssignedTo:
			task.AssigneeID = value.(string)
		}
	}
	task.UpdatedAt = time.Now()
	r.tasks[id] = storedTask{task: task, seq: stored.seq}
	r.mu.Unlock()

	view := r.view(task)
	return &view, nil
}

func (r *TaskRepository) DeleteTask(_ context.Context, scope policy.TaskScope, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[id]
	if !ok || !inScope(stored.task, scope) {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *TaskRepository) view(task models.Task) models.TaskView {
	return models.TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
		Status:      task.Status,
		Owner:       r.users.lookup(task.OwnerID),
		AssignedTo:  r.users.lookup(task.AssigneeID),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
