package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
	auth.Get("/session", handler.AuthRequired, handler.SessionStatus)

	users := api.Group("/users", handler.AuthRequired, handler.AdminOnly)
	users.Get("", handler.ListUsers)
	users.Post("", handler.CreateUser)
	users.Delete("/:id", handler.DeleteUser)

	data := api.Group("", handler.AuthRequired)
	data.Get("/data", handler.GetData)

	transactions := api.Group("/transactions", handler.AuthRequired)
	transactions.Post("", handler.CreateTransaction)
	transactions.Delete("/:id", handler.DeleteTransaction)

	stock := api.Group("/stock", handler.AuthRequired)
	stock.Post("", handler.UpdateStock)

	fuel := api.Group("/fuel", handler.AuthRequired)
	fuel.Post("", handler.CreateFuelLog)
	fuel.Delete("/:id", handler.DeleteFuelLog)

	settings := api.Group("/settings", handler.AuthRequired)
	settings.Patch("", handler.UpdateSettings)

	syncGroup := api.Group("/sync", handler.AuthRequired)
	syncGroup.Post("/push", handler.SyncPush)
	syncGroup.Post("/pull", handler.SyncPull)
	syncGroup.Get("/status", handler.SyncStatus)

	transfer := api.Group("", handler.AuthRequired)
	transfer.Get("/export", handler.ExportData)
	transfer.Post("/import", handler.ImportData)
}
