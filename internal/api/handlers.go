package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/display"
	"github.com/bilgisen/signage/internal/middleware"
	"github.com/bilgisen/signage/internal/models"
	"github.com/bilgisen/signage/internal/storage"
	"github.com/bilgisen/signage/internal/uploads"
)

const version = "1.0.0"

// Aggregator builds the display envelope for a screen
type Aggregator interface {
	Aggregate(ctx context.Context, screen *models.Screen) (*models.AggregatedContent, error)
}

// Deps are the collaborators the handlers need
type Deps struct {
	Repo           storage.Repository
	Aggregator     Aggregator
	Hub            *display.Hub
	Notifier       display.Notifier
	Images         uploads.ImageStore
	MaxUploadBytes int64
	Location       *time.Location
	Log            zerolog.Logger
}

type Handlers struct {
	repo           storage.Repository
	aggregator     Aggregator
	hub            *display.Hub
	notifier       display.Notifier
	images         uploads.ImageStore
	validator      *middleware.Validator
	maxUploadBytes int64
	loc            *time.Location
	now            func() time.Time
	log            zerolog.Logger
}

func NewHandlers(deps Deps) *Handlers {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = deps.Hub
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		repo:           deps.Repo,
		aggregator:     deps.Aggregator,
		hub:            deps.Hub,
		notifier:       notifier,
		images:         deps.Images,
		validator:      middleware.NewValidator(),
		maxUploadBytes: deps.MaxUploadBytes,
		loc:            loc,
		now:            time.Now,
		log:            deps.Log.With().Str("component", "api").Logger(),
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"version":  version,
		"time":     time.Now().Format(time.RFC3339),
		"displays": h.hub.ActiveCount(),
	})
}

// GetContent handles GET /api/v1/content/:id and GET /display/:id
func (h *Handlers) GetContent(c *fiber.Ctx) error {
	screen, err := h.repo.GetScreen(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storageError(err, "Screen not found")
	}

	content, err := h.aggregator.Aggregate(c.UserContext(), screen)
	if err != nil {
		return fmt.Errorf("failed to aggregate screen %s: %w", screen.ID, err)
	}

	return c.JSON(content)
}

// RefreshDisplays handles POST /api/v1/admin/refresh
func (h *Handlers) RefreshDisplays(c *fiber.Ctx) error {
	if err := h.notifier.ContentChanged(c.UserContext()); err != nil {
		return fmt.Errorf("failed to send refresh: %w", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":   "refresh sent",
		"displays": h.hub.ActiveCount(),
	})
}

// ActiveDisplays handles GET /api/v1/admin/displays
func (h *Handlers) ActiveDisplays(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"active": h.hub.ActiveCount(),
	})
}

// contentChanged notifies displays without failing the admin request
func (h *Handlers) contentChanged(ctx context.Context, reason string) {
	if err := h.notifier.ContentChanged(ctx); err != nil {
		h.log.Error().
			Err(err).
			Str("reason", reason).
			Msg("Failed to notify displays")
	}
}

func (h *Handlers) storageError(err error, notFound string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return err
}
