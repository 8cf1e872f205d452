package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ShayNeeo/DeltaUp/internal/core/auth"
)

// SubjectKey is the Locals key the authenticated user ID is stored under.
const SubjectKey = "subject"

// Protected rejects requests without a valid bearer token and stashes the
// token's subject for the handlers.
func Protected(gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, err := gate.VerifyHeader(c.Get("Authorization"))
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid or missing token",
			})
		}
		c.Locals(SubjectKey, subject)
		return c.Next()
	}
}
