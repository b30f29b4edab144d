package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bilgisen/signage/internal/middleware"
	"github.com/bilgisen/signage/internal/models"
)

// RouteConfig holds the settings SetupRoutes needs besides the handlers
type RouteConfig struct {
	AdminAPIKey string
	// UploadsDir is served under /uploads when set
	UploadsDir string
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, h *Handlers, cfg RouteConfig) {
	if cfg.UploadsDir != "" {
		app.Static("/uploads", cfg.UploadsDir)
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Display endpoints
	app.Get("/display/:id", h.GetContent)
	app.Use("/ws", RequireUpgrade)
	app.Get("/ws", websocket.New(h.DisplaySocket))

	// API group with versioning
	api := app.Group("/api/v1")

	api.Get("/health", h.HealthCheck)
	api.Get("/content/:id", h.GetContent)
	api.Get("/notices", h.ListNotices)

	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	{
		admin.Get("/screens", h.ListScreens)
		admin.Post("/screens", middleware.ValidateBody[models.Screen](), h.CreateScreen)
		admin.Get("/screens/:id", h.GetScreen)
		admin.Put("/screens/:id", middleware.ValidateBody[models.Screen](), h.UpdateScreen)
		admin.Delete("/screens/:id", h.DeleteScreen)

		admin.Get("/notices", h.ListNotices)
		admin.Post("/notices", h.CreateNotice)
		admin.Put("/notices/:id", h.UpdateNotice)
		admin.Delete("/notices/:id", h.DeleteNotice)

		admin.Post("/refresh", h.RefreshDisplays)
		admin.Get("/displays", h.ActiveDisplays)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
