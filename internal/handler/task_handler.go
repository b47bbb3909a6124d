package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"task-service/internal/models"
	"task-service/internal/service"
)

type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

func (h *TaskHandler) Create(c echo.Context) error {
	var req models.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request body"})
	}

	view, err := h.tasks.Create(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *TaskHandler) List(c echo.Context) error {
	q := service.ListQuery{
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
		Priority: c.QueryParam("priority"),
	}

	page, err := h.tasks.List(c.Request().Context(), actorFrom(c), q)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) Get(c echo.Context) error {
	view, err := h.tasks.Get(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update binds the body as raw fields so the service can tell which keys
// were actually present before checking them against the role allowlist.
func (h *TaskHandler) Update(c echo.Context) error {
	var fields map[string]json.RawMessage
	if err := c.Bind(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid request body"})
	}

	view, err := h.tasks.Update(c.Request().Context(), actorFrom(c), c.Param("id"), fields)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.tasks.Delete(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Task deleted"})
}

func queryInt(c echo.Context, name string) int {
	value, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return value
}
