package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"task-service/internal/models"
	"task-service/internal/policy"
	"task-service/internal/repository/memory"
	"task-service/pkg/jwt"
	"task-service/pkg/password"
)

type testEnv struct {
	auth  *AuthService
	tasks *TaskService
	users *UserService
	store *memory.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := memory.NewUserRepository()
	taskRepo := memory.NewTaskRepository(userRepo)
	tokens := jwt.NewManager("test-secret", time.Hour)
	hasher := password.NewHasher()

	return &testEnv{
		auth:  NewAuthService(userRepo, tokens, hasher, logger),
		tasks: NewTaskService(taskRepo, userRepo, logger),
		users: NewUserService(userRepo, logger),
		store: userRepo,
	}
}

var registerSeq int

// registerActor registers a user with the given role and returns the
// actor plus the issued token.
func (e *testEnv) registerActor(t *testing.T, role string) (policy.Actor, string) {
	t.Helper()

	registerSeq++
	resp, err := e.auth.Register(context.Background(), &models.RegisterRequest{
		Name:     fmt.Sprintf("User %d", registerSeq),
		Email:    fmt.Sprintf("user%d@example.com", registerSeq),
		Password: "pass1234",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return policy.Actor{ID: resp.User.ID, Role: resp.User.Role}, resp.Token
}

// createTask creates a task owned by owner and assigned to assigneeID.
func (e *testEnv) createTask(t *testing.T, owner policy.Actor, assigneeID, title string) *models.TaskView {
	t.Helper()

	view, err := e.tasks.Create(context.Background(), owner, &models.CreateTaskRequest{
		Title:      title,
		AssignedTo: assigneeID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return view
}
