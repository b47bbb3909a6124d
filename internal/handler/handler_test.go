package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"task-service/internal/models"
	"task-service/internal/repository/memory"
	"task-service/internal/service"
	"task-service/pkg/jwt"
	"task-service/pkg/password"
)

func newTestServer() *echo.Echo {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUserRepository()
	tasks := memory.NewTaskRepository(users)

	authService := service.NewAuthService(users, jwt.NewManager("test-secret", time.Hour), password.NewHasher(), logger)
	taskService := service.NewTaskService(tasks, users, logger)
	userService := service.NewUserService(users, logger)

	e := echo.New()
	RegisterRoutes(e,
		NewMiddleware(authService),
		NewAuthHandler(authService, logger),
		NewTaskHandler(taskService, logger),
		NewUserHandler(userService, logger),
	)
	return e
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

var emailSeq int

func register(t *testing.T, e *echo.Echo, role string) models.AuthResponse {
	t.Helper()
	emailSeq++
	body := fmt.Sprintf(`{"name":"User %d","email":"u%d@example.com","password":"pass1234","role":%q}`,
		emailSeq, emailSeq, role)
	rec := doJSON(e, http.MethodPost, "/auth/register", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp models.AuthResponse
	decodeBody(t, rec, &resp)
	return resp
}

func createTask(t *testing.T, e *echo.Echo, adminToken, assigneeID, title string) models.TaskView {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"priority":"high","assignedTo":%q}`, title, assigneeID)
	rec := doJSON(e, http.MethodPost, "/tasks", adminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task failed: %d %s", rec.Code, rec.Body.String())
	}
	var view models.TaskView
	decodeBody(t, rec, &view)
	return view
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer()
	rec := doJSON(e, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" || body["service"] != "task-backend" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRegister_ResponseShape(t *testing.T) {
	e := newTestServer()
	rec := doJSON(e, http.MethodPost, "/auth/register", "",
		`{"name":"Ada","email":"ada@example.com","password":"pass1234","role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}

	var body map[string]json.RawMessage
	decodeBody(t, rec, &body)
	if _, ok := body["token"]; !ok {
		t.Fatal("missing token field")
	}

	var user map[string]string
	if err := json.Unmarshal(body["user"], &user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user["id"] == "" || user["name"] != "Ada" || user["email"] != "ada@example.com" || user["role"] != "admin" {
		t.Fatalf("unexpected user view: %v", user)
	}
	if _, ok := user["passwordHash"]; ok {
		t.Fatal("password hash leaked")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestServer()
	body := `{"name":"Ada","email":"dup@example.com","password":"pass1234"}`
	if rec := doJSON(e, http.MethodPost, "/auth/register", "", body); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	rec := doJSON(e, http.MethodPost, "/auth/register", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["msg"] != "User already exists" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}
}

func TestLogin_IdenticalErrorForBothFailureModes(t *testing.T) {
	e := newTestServer()
	register(t, e, "user")

	wrongPass := doJSON(e, http.MethodPost, "/auth/login", "",
		fmt.Sprintf(`{"email":"u%d@example.com","password":"wrong"}`, emailSeq))
	unknownEmail := doJSON(e, http.MethodPost, "/auth/login", "",
		`{"email":"nobody@example.com","password":"whatever"}`)

	if wrongPass.Code != http.StatusBadRequest || unknownEmail.Code != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrongPass.Code, unknownEmail.Code)
	}
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", wrongPass.Body.String(), unknownEmail.Body.String())
	}
	var resp map[string]string
	decodeBody(t, wrongPass, &resp)
	if resp["msg"] != "Invalid credentials" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}
}

func TestAuthMe_RequiresToken(t *testing.T) {
	e := newTestServer()

	if rec := doJSON(e, http.MethodGet, "/auth/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodGet, "/auth/me", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	auth := register(t, e, "user")
	rec := doJSON(e, http.MethodGet, "/auth/me", auth.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var user map[string]interface{}
	decodeBody(t, rec, &user)
	if user["id"] != auth.User.ID {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestUserList_AdminOnlyAndUnderscoreID(t *testing.T) {
	e := newTestServer()
	admin := register(t, e, "admin")
	user := register(t, e, "user")

	if rec := doJSON(e, http.MethodGet, "/users", user.Token, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec := doJSON(e, http.MethodGet, "/users", admin.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var items []map[string]string
	decodeBody(t, rec, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 users, got %d", len(items))
	}
	for _, item := range items {
		if item["_id"] == "" {
			t.Fatalf("expected _id on directory items, got %v", item)
		}
		if _, ok := item["id"]; ok {
			t.Fatalf("directory items must not carry id: %v", item)
		}
	}
}

func TestUserRoleChange_SelfAlwaysRejected(t *testing.T) {
	e := newTestServer()
	admin := register(t, e, "admin")

	rec := doJSON(e, http.MethodPut, "/users/"+admin.User.ID, admin.Token, `{"role":"user"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["msg"] != "You cannot change your own role" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}
}

func TestUserDelete_FlowAndSelfProtection(t *testing.T) {
	e := newTestServer()
	admin := register(t, e, "admin")
	user := register(t, e, "user")

	rec := doJSON(e, http.MethodDelete, "/users/"+admin.User.ID, admin.Token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on self-delete, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodDelete, "/users/"+user.User.ID, admin.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["msg"] != "User deleted successfully" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}

	if rec := doJSON(e, http.MethodDelete, "/users/"+user.User.ID, admin.Token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", rec.Code)
	}
}

func TestTaskCreate_NonAdminForbidden(t *testing.T) {
	e := newTestServer()
	user := register(t, e, "user")

	rec := doJSON(e, http.MethodPost, "/tasks", user.Token,
		fmt.Sprintf(`{"title":"x","assignedTo":%q}`, user.User.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["msg"] != "Only admins can create tasks" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}
}

func TestTaskUpdate_AssigneeTitleChangeForbidden(t *testing.T) {
	e := newTestServer()
	admin := register(t, e, "admin")
	user := register(t, e, "user")
	task := createTask(t, e, admin.Token, user.User.ID, "mine to complete")

	// Assigned to the actor, still 403: the field set is what matters.
	rec := doJSON(e, http.MethodPut, "/tasks/"+task.ID, user.Token, `{"title":"x"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["msg"] != "You are not allowed to modify these fields" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}

	// The status path (what the drag/drop UI uses) succeeds.
	rec = doJSON(e, http.MethodPut, "/tasks/"+task.ID, user.Token, `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var view models.TaskView
	decodeBody(t, rec, &view)
	if view.Status != models.StatusCompleted {
		t.Fatalf("unexpected status: %q", view.Status)
	}
}

func TestTaskList_ScopingAndShape(t *testing.T) {
	e := newTestServer()
	admin := register(t, e, "admin")
	otherAdmin := register(t, e, "admin")
	user := register(t, e, "user")

	createTask(t, e, admin.Token, user.User.ID, "visible")

	rec := doJSON(e, http.MethodGet, "/tasks?page=1&limit=10", otherAdmin.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var page models.TaskPage
	decodeBody(t, rec, &page)
	if page.Total != 0 || len(page.Tasks) != 0 {
		t.Fatalf("another admin must not see the task: %+v", page)
	}

	rec = doJSON(e, http.MethodGet, "/tasks", user.Token, "")
	decodeBody(t, rec, &page)
	if page.Total != 1 || page.Page != 1 || page.Pages != 1 {
		t.Fatalf("unexpected page for assignee: %+v", page)
	}

	// Raw shape: `tasks` must be a JSON array even when empty.
	rec = doJSON(e, http.MethodGet, "/tasks?page=4", admin.Token, "")
	var raw map[string]json.RawMessage
	decodeBody(t, rec, &raw)
	if string(raw["tasks"]) == "null" {
		t.Fatal("tasks must serialize as [], not null")
	}
}

func TestTaskGetAndDelete_ScopedMissIs404(t *testing.T) {
	e := newTestServer()
	admin := register(t, e, "admin")
	otherAdmin := register(t, e, "admin")
	user := register(t, e, "user")
	task := createTask(t, e, admin.Token, user.User.ID, "scoped")

	if rec := doJSON(e, http.MethodGet, "/tasks/"+task.ID, otherAdmin.Token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for out-of-scope read, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, "/tasks/"+task.ID, otherAdmin.Token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for out-of-scope delete, got %d", rec.Code)
	}

	rec := doJSON(e, http.MethodDelete, "/tasks/"+task.ID, admin.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["msg"] != "Task deleted" {
		t.Fatalf("unexpected message: %q", resp["msg"])
	}
}
