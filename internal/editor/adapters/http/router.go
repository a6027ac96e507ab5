// Package http содержит HTTP поверхность редактора заметок.
package http

import (
	"github.com/gofiber/fiber/v3"

	"notetaker/internal/editor/adapters/http/middleware"
	"notetaker/pkg/logger"
)

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, editor Editor, log *logger.Logger) {
	h := NewHandler(editor)

	// Middleware для всех запросов.
	app.Use(middleware.NewRequestIDMiddleware(log))
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	apiV1 := app.Group("/api/v1")

	notes := apiV1.Group("/notes")
	notes.Get("/", h.View)
	notes.Delete("/:note_id", h.Delete)

	editorRoutes := apiV1.Group("/editor")
	editorRoutes.Get("/", h.View)
	editorRoutes.Post("/select/:note_id", h.Select)
	editorRoutes.Put("/text", h.ChangeText)
	editorRoutes.Post("/submit", h.Submit)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
