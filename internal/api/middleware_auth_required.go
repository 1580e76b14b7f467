package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mistermandob/mandob/internal/models"
)

const contextUserKey = "mandob_current_user"

// AuthRequired validates the session cookie and requires it to name the
// identity that is currently active in this process. One active identity
// per process: a cookie for a different user forces a fresh login.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	raw := c.Cookies(authCookieName)
	if strings.TrimSpace(raw) == "" {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	claims, err := handler.parseToken(raw)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, ok := handler.session.CurrentUser()
	if !ok || !strings.EqualFold(user.Username, claims.Username) {
		return apiError(c, fiber.StatusUnauthorized, "session expired")
	}

	c.Locals(contextUserKey, user)
	return c.Next()
}

func (handler *Handler) AdminOnly(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok || !user.IsAdmin() {
		return apiError(c, fiber.StatusForbidden, "admin only")
	}
	return c.Next()
}

func currentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(contextUserKey).(models.User)
	return user, ok
}
