package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"task-service/internal/policy"
	"task-service/internal/service"
)

const actorContextKey = "actor"

type Middleware struct {
	auth *service.AuthService
}

func NewMiddleware(auth *service.AuthService) *Middleware {
	return &Middleware{auth: auth}
}

// Authenticate requires a valid `Authorization: Bearer <token>` header
// and stores the decoded actor on the request context.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "No token, authorization denied"})
		}

		actor, err := m.auth.Verify(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Token is not valid"})
		}

		c.Set(actorContextKey, actor)
		return next(c)
	}
}

// RequireAdmin gates a route group on the role claim. Runs after
// Authenticate.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !actorFrom(c).IsAdmin() {
			return c.JSON(http.StatusForbidden, echo.Map{"msg": "Access denied"})
		}
		return next(c)
	}
}

func actorFrom(c echo.Context) policy.Actor {
	actor, _ := c.Get(actorContextKey).(policy.Actor)
	return actor
}
