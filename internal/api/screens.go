package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/signage/internal/middleware"
	"github.com/bilgisen/signage/internal/models"
)

// ListScreens handles GET /api/v1/admin/screens
func (h *Handlers) ListScreens(c *fiber.Ctx) error {
	screens, err := h.repo.ListScreens(c.UserContext())
	if err != nil {
		return fmt.Errorf("failed to list screens: %w", err)
	}
	return c.JSON(fiber.Map{
		"total": len(screens),
		"items": screens,
	})
}

// GetScreen handles GET /api/v1/admin/screens/:id
func (h *Handlers) GetScreen(c *fiber.Ctx) error {
	screen, err := h.repo.GetScreen(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storageError(err, "Screen not found")
	}
	return c.JSON(screen)
}

// CreateScreen handles POST /api/v1/admin/screens. The body has been
// validated by middleware.ValidateBody.
func (h *Handlers) CreateScreen(c *fiber.Ctx) error {
	screen := c.Locals(middleware.ValidatedKey).(*models.Screen)

	created, err := h.repo.CreateScreen(c.UserContext(), *screen)
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	h.log.Info().
		Str("screen_id", created.ID).
		Str("name", created.Name).
		Msg("Screen created")
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateScreen handles PUT /api/v1/admin/screens/:id
func (h *Handlers) UpdateScreen(c *fiber.Ctx) error {
	screen := c.Locals(middleware.ValidatedKey).(*models.Screen)
	screen.ID = c.Params("id")

	if err := h.repo.PutScreen(c.UserContext(), *screen); err != nil {
		return h.storageError(err, "Screen not found")
	}

	h.contentChanged(c.UserContext(), "screen updated")
	return c.JSON(screen)
}

// DeleteScreen handles DELETE /api/v1/admin/screens/:id
func (h *Handlers) DeleteScreen(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.repo.DeleteScreen(c.UserContext(), id); err != nil {
		return h.storageError(err, "Screen not found")
	}

	h.log.Info().Str("screen_id", id).Msg("Screen deleted")
	return c.SendStatus(fiber.StatusNoContent)
}
