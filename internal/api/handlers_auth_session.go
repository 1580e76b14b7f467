package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mistermandob/mandob/internal/models"
	"github.com/mistermandob/mandob/internal/services"
)

type loginInput struct {
	Username   string `json:"username" form:"username"`
	Secret     string `json:"secret" form:"secret"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

// Login resolves credentials (local list first, remote fallback), activates
// the session and fires a background pull so this device catches up with
// the remote snapshot. Resolution failure is a single undifferentiated
// "invalid credentials" with no detail about which check failed.
func (handler *Handler) Login(c *fiber.Ctx) error {
	var input loginInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	secret := input.Secret
	if secret == "" {
		secret = input.Password
	}
	if input.Username == "" || secret == "" {
		return apiError(c, fiber.StatusBadRequest, "username and secret are required")
	}

	user, err := handler.identity.Resolve(c.UserContext(), input.Username, secret)
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		return apiError(c, fiber.StatusInternalServerError, "login failed")
	}

	data, err := handler.session.Activate(user)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to activate session")
	}
	if err := handler.setAuthCookie(c, user, input.RememberMe); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}

	// Catch up with the remote snapshot without blocking the login
	// response; the pull merges into the snapshot we just activated.
	go handler.sync.PullNow(context.Background())

	return c.JSON(fiber.Map{
		"user": toPublicUser(user),
		"data": data,
	})
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.sync.CancelPending()
	handler.session.Logout()
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) SessionStatus(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	return c.JSON(fiber.Map{
		"user": toPublicUser(user),
		"sync": handler.sync.Status(),
	})
}

func toPublicUser(user models.User) publicUser {
	return publicUser{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}
