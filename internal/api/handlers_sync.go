package api

import "github.com/gofiber/fiber/v2"

// SyncPush is the manual "save now": it bypasses the debounce and pushes
// the current snapshot immediately.
func (handler *Handler) SyncPush(c *fiber.Ctx) error {
	ok := handler.sync.PushNow(c.UserContext())
	return c.JSON(fiber.Map{"ok": ok, "sync": handler.sync.Status()})
}

// SyncPull is the manual "pull now". A failed pull leaves local state
// untouched; local persistence stays the source of truth offline.
func (handler *Handler) SyncPull(c *fiber.Ctx) error {
	ok := handler.sync.PullNow(c.UserContext())
	return c.JSON(fiber.Map{"ok": ok, "sync": handler.sync.Status()})
}

func (handler *Handler) SyncStatus(c *fiber.Ctx) error {
	return c.JSON(handler.sync.Status())
}
