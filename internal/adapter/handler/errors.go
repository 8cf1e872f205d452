package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ShayNeeo/DeltaUp/internal/core/domain"
)

// statusForCode maps the closed error-code enumeration to HTTP statuses.
// This is the only place codes turn into statuses.
func statusForCode(code domain.Code) int {
	switch code {
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeRecipientNotFound, domain.CodeAccountNotFound:
		return http.StatusNotFound
	case domain.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeError renders any error as the {error, message} body clients expect.
// Infrastructure causes are logged, never leaked.
func writeError(c *fiber.Ctx, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Wrap(domain.CodeInternal, "Internal server error", err)
	}
	status := statusForCode(de.Code)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.Path())
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   string(de.Code),
		"message": de.Message,
	})
}
