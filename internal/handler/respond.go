package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-service/internal/apperror"
)

// respondError maps a classified error to its status and `{msg}` body.
// Anything unclassified is logged and surfaced as a bare 500 `{error}`.
func respondError(c echo.Context, logger *slog.Logger, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return c.JSON(statusFor(appErr.Kind()), echo.Map{"msg": appErr.Error()})
	}

	logger.Error("Request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error"})
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindAuthentication:
		return http.StatusUnauthorized
	case apperror.KindAuthorization:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		// Duplicate email is reported as 400 to preserve the published
		// client contract.
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
