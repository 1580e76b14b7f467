package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mistermandob/mandob/internal/services"
)

type createUserInput struct {
	Username    string `json:"username" form:"username"`
	Secret      string `json:"secret" form:"secret"`
	DisplayName string `json:"name" form:"name"`
	Role        string `json:"role" form:"role"`
}

func (handler *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := handler.identity.ListUsers()
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load users")
	}

	result := make([]publicUser, 0, len(users))
	for _, user := range users {
		result = append(result, toPublicUser(user))
	}
	return c.JSON(fiber.Map{"users": result})
}

func (handler *Handler) CreateUser(c *fiber.Ctx) error {
	var input createUserInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.identity.AddUser(input.Username, input.Secret, input.DisplayName, input.Role)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			return apiError(c, fiber.StatusConflict, "username already taken")
		}
		return apiError(c, fiber.StatusBadRequest, "failed to create user")
	}

	// Identity list changes ride the same debounced push as data changes.
	handler.sync.MarkDirty()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": toPublicUser(user)})
}

func (handler *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := handler.identity.DeleteUser(id); err != nil {
		switch {
		case errors.Is(err, services.ErrSeededUser):
			return apiError(c, fiber.StatusForbidden, "seeded users cannot be deleted")
		case errors.Is(err, services.ErrUserNotFound):
			return apiError(c, fiber.StatusNotFound, "user not found")
		default:
			return apiError(c, fiber.StatusInternalServerError, "failed to delete user")
		}
	}

	handler.sync.MarkDirty()
	return c.JSON(fiber.Map{"ok": true})
}
