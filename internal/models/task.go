package models

import "time"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is the stored entity. OwnerID is the admin who created the task
// and is immutable after creation; AssigneeID is admin-mutable. Either
// reference may dangle after the referenced user is deleted.
type Task struct {
	ID          string
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Status      Status
	OwnerID     string
	AssigneeID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskView is the wire shape of a task, with owner and assignee populated
// as public user views. A populated field is null when the referenced
// user no longer exists.
type TaskView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	Owner       *PublicUser `json:"owner"`
	AssignedTo  *PublicUser `json:"assignedTo"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	AssignedTo  string     `json:"assignedTo"`
}

// TaskPage is the listing response shape.
type TaskPage struct {
	Tasks []TaskView `json:"tasks"`
	Page  int        `json:"page"`
	Total int        `json:"total"`
	Pages int        `json:"pages"`
}
