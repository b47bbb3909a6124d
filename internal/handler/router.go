package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all routes. Every authenticated group passes
// through bearer verification first; the user directory additionally
// requires the admin role at the group level.
func RegisterRoutes(e *echo.Echo, mw *Middleware, auth *AuthHandler, tasks *TaskHandler, users *UserHandler) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "task-backend"})
	})

	a := e.Group("/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.GET("/me", auth.Me, mw.Authenticate)

	t := e.Group("/tasks", mw.Authenticate)
	t.POST("", tasks.Create)
	t.GET("", tasks.List)
	t.GET("/:id", tasks.Get)
	t.PUT("/:id", tasks.Update)
	t.DELETE("/:id", tasks.Delete)

	u := e.Group("/users", mw.Authenticate, mw.RequireAdmin)
	u.GET("", users.List)
	u.PUT("/:id", users.UpdateRole)
	u.DELETE("/:id", users.Delete)
}
