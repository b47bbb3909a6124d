package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-service/internal/models"
	"task-service/internal/policy"
	"task-service/internal/repository"
)

// taskViewColumns selects the task row plus both user references,
// LEFT-joined so a dangling reference populates as NULL instead of
// hiding the task.
const taskViewColumns = `
	t.id, t.title, t.description, t.due_date, t.priority, t.status,
	t.created_at, t.updated_at,
	o.id, o.name, o.email, o.role,
	a.id, a.name, a.email, a.role
`

const taskViewFrom = `
	FROM tasks t
	LEFT JOIN users o ON o.id = t.owner_id
	LEFT JOIN users a ON a.id = t.assigned_to
`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: pool}
}

func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, due_date, priority, status,
			owner_id, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate,
		string(task.Priority),
		string(task.Status),
		task.OwnerID,
		task.AssigneeID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// scopeCondition renders the visibility predicate as SQL against the
// aliased tasks table.
func scopeCondition(scope policy.TaskScope, arg int) (string, interface{}) {
	if scope.OwnerID != "" {
		return fmt.Sprintf("t.owner_id = $%d", arg), scope.OwnerID
	}
	return fmt.Sprintf("t.assigned_to = $%d", arg), scope.AssigneeID
}

func (r *TaskRepository) GetTask(ctx context.Context, scope policy.TaskScope, id string) (*models.TaskView, error) {
	cond, scopeArg := scopeCondition(scope, 2)
	query := "SELECT " + taskViewColumns + taskViewFrom + " WHERE t.id = $1 AND " + cond

	view, err := scanTaskView(r.db.QueryRow(ctx, query, id, scopeArg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return view, nil
}

func (r *TaskRepository) ListTasks(ctx context.Context, scope policy.TaskScope, filter repository.TaskFilter) ([]models.TaskView, int, error) {
	cond, scopeArg := scopeCondition(scope, 1)
	where := " WHERE " + cond
	params := []interface{}{scopeArg}

	if filter.Priority != "" {
		params = append(params, string(filter.Priority))
		where += fmt.Sprintf(" AND t.priority = $%d", len(params))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM tasks t" + where
	if err := r.db.QueryRow(ctx, countQuery, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	params = append(params, filter.Limit, filter.Offset)
	query := "SELECT " + taskViewColumns + taskViewFrom + where +
		fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d", len(params)-1, len(params))

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var views []models.TaskView
	for rows.Next() {
		view, err := scanTaskView(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return views, total, nil
}

func (r *TaskRepository) UpdateTask(ctx context.Context, scope policy.TaskScope, id string, updates map[string]interface{}) (*models.TaskView, error) {
	if len(updates) == 0 {
		return r.GetTask(ctx, scope, id)
	}

	query := "UPDATE tasks SET "
	params := []interface{}{}

	for column, value := range updates {
		params = append(params, value)
		query += fmt.Sprintf("%s = $%d, ", column, len(params))
	}

	params = append(params, id)
	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d", len(params))

	cond, scopeArg := scopeCondition(scope, len(params)+1)
	params = append(params, scopeArg)
	// The scope predicate names the aliased column; strip the alias for
	// the UPDATE statement.
	query += " AND " + cond[len("t."):]

	tag, err := r.db.Exec(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	return r.GetTask(ctx, scope, id)
}

func (r *TaskRepository) DeleteTask(ctx context.Context, scope policy.TaskScope, id string) (bool, error) {
	cond, scopeArg := scopeCondition(scope, 2)
	query := "DELETE FROM tasks t WHERE t.id = $1 AND " + cond

	tag, err := r.db.Exec(ctx, query, id, scopeArg)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanTaskView reads one row of taskViewColumns. Owner and assignee come
// back as nullable column sets and populate to nil when the referenced
// user has been deleted.
func scanTaskView(row pgx.Row) (*models.TaskView, error) {
	var view models.TaskView
	var ownerID, ownerName, ownerEmail, ownerRole *string
	var assigneeID, assigneeName, assigneeEmail, assigneeRole *string

	err := row.Scan(
		&view.ID,
		&view.Title,
		&view.Description,
		&view.DueDate,
		&view.Priority,
		&view.Status,
		&view.CreatedAt,
		&view.UpdatedAt,
		&ownerID, &ownerName, &ownerEmail, &ownerRole,
		&assigneeID, &assigneeName, &assigneeEmail, &assigneeRole,
	)
	if err != nil {
		return nil, err
	}

	if ownerID != nil {
		view.Owner = &models.PublicUser{
			ID:    *ownerID,
			Name:  *ownerName,
			Email: *ownerEmail,
			Role:  policy.Role(*ownerRole),
		}
	}
	if assigneeID != nil {
		view.AssignedTo = &models.PublicUser{
			ID:    *assigneeID,
			Name:  *assigneeName,
			Email: *assigneeEmail,
			Role:  policy.Role(*assigneeRole),
		}
	}

	return &view, nil
}
