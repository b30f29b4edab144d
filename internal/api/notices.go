package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/bilgisen/signage/internal/middleware"
	"github.com/bilgisen/signage/internal/models"
	"github.com/bilgisen/signage/internal/notice"
	"github.com/bilgisen/signage/internal/uploads"
)

// noticeRequest is the admin form for a notice. It is accepted as JSON,
// urlencoded or multipart form; multipart forms may carry an "image" file.
type noticeRequest struct {
	Title           string   `json:"title" form:"title"`
	Body            string   `json:"body" form:"body"`
	StartsAt        string   `json:"startsAt" form:"startsAt"`
	EndsAt          string   `json:"endsAt" form:"endsAt"`
	Link            string   `json:"link" form:"link"`
	TargetScreenIDs []string `json:"targetScreenIds" form:"targetScreenIds"`
	RemoveImage     bool     `json:"removeImage" form:"removeImage"`
}

// noticeView is a notice as listed by the API
type noticeView struct {
	models.Notice
	Active bool `json:"active"`
}

// ListNotices handles GET /api/v1/notices and GET /api/v1/admin/notices
func (h *Handlers) ListNotices(c *fiber.Ctx) error {
	notices, err := h.repo.ListNotices(c.UserContext())
	if err != nil {
		return fmt.Errorf("failed to list notices: %w", err)
	}

	now := h.now()
	items := lo.Map(notices, func(n models.Notice, _ int) noticeView {
		return noticeView{Notice: n, Active: h.activeAnywhere(n, now)}
	})

	return c.JSON(fiber.Map{
		"total": len(items),
		"items": items,
	})
}

// CreateNotice handles POST /api/v1/admin/notices
func (h *Handlers) CreateNotice(c *fiber.Ctx) error {
	req, err := h.parseNotice(c)
	if err != nil {
		return err
	}

	n := req.apply(models.Notice{ID: uuid.New().String()})
	if err := h.validator.Validate(n); err != nil {
		return middleware.ValidationFailed(c, err)
	}

	imageURL, err := h.saveImage(c)
	if err != nil {
		return err
	}
	if imageURL != "" {
		n.ImageURL = imageURL
	}

	if err := h.repo.PutNotice(c.UserContext(), n); err != nil {
		h.discardImage(c.UserContext(), imageURL)
		return fmt.Errorf("failed to save notice: %w", err)
	}

	h.log.Info().Str("notice_id", n.ID).Str("title", n.Title).Msg("Notice created")
	h.contentChanged(c.UserContext(), "notice created")
	return c.Status(fiber.StatusCreated).JSON(n)
}

// UpdateNotice handles PUT /api/v1/admin/notices/:id
func (h *Handlers) UpdateNotice(c *fiber.Ctx) error {
	existing, err := h.repo.GetNotice(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storageError(err, "Notice not found")
	}

	req, err := h.parseNotice(c)
	if err != nil {
		return err
	}

	n := req.apply(*existing)
	if err := h.validator.Validate(n); err != nil {
		return middleware.ValidationFailed(c, err)
	}

	imageURL, err := h.saveImage(c)
	if err != nil {
		return err
	}
	oldImage := existing.ImageURL
	switch {
	case imageURL != "":
		n.ImageURL = imageURL
	case req.RemoveImage:
		n.ImageURL = ""
	}

	if err := h.repo.PutNotice(c.UserContext(), n); err != nil {
		h.discardImage(c.UserContext(), imageURL)
		return fmt.Errorf("failed to save notice: %w", err)
	}
	if oldImage != "" && oldImage != n.ImageURL {
		h.discardImage(c.UserContext(), oldImage)
	}

	h.log.Info().Str("notice_id", n.ID).Msg("Notice updated")
	h.contentChanged(c.UserContext(), "notice updated")
	return c.JSON(n)
}

// DeleteNotice handles DELETE /api/v1/admin/notices/:id
func (h *Handlers) DeleteNotice(c *fiber.Ctx) error {
	removed, err := h.repo.DeleteNotice(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storageError(err, "Notice not found")
	}

	h.discardImage(c.UserContext(), removed.ImageURL)

	h.log.Info().Str("notice_id", removed.ID).Msg("Notice deleted")
	h.contentChanged(c.UserContext(), "notice deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) parseNotice(c *fiber.Ctx) (*noticeRequest, error) {
	req := new(noticeRequest)
	if err := c.BodyParser(req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	req.TargetScreenIDs = splitTargets(req.TargetScreenIDs)
	return req, nil
}

func (r *noticeRequest) apply(n models.Notice) models.Notice {
	n.Title = strings.TrimSpace(r.Title)
	n.Body = strings.TrimSpace(r.Body)
	n.StartsAt = strings.TrimSpace(r.StartsAt)
	n.EndsAt = strings.TrimSpace(r.EndsAt)
	n.Link = strings.TrimSpace(r.Link)
	n.TargetScreenIDs = r.TargetScreenIDs
	return n
}

// splitTargets accepts repeated values as well as comma separated lists
func splitTargets(values []string) []string {
	ids := lo.FlatMap(values, func(v string, _ int) []string {
		return strings.Split(v, ",")
	})
	ids = lo.Map(ids, func(id string, _ int) string { return strings.TrimSpace(id) })
	return lo.Uniq(lo.Compact(ids))
}

func (h *Handlers) saveImage(c *fiber.Ctx) (string, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return "", nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
	}
	files := form.File["image"]
	if len(files) == 0 {
		return "", nil
	}
	fh := files[0]
	if h.images == nil {
		return "", fiber.NewError(fiber.StatusServiceUnavailable, "Image uploads are not configured")
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return "", fiber.NewError(fiber.StatusRequestEntityTooLarge, "Image is too large")
	}

	url, err := h.storeImage(c.UserContext(), fh)
	if errors.Is(err, uploads.ErrUnsupportedType) {
		return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "Only image uploads are allowed")
	}
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return url, nil
}

func (h *Handlers) storeImage(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.images.Save(ctx, fh.Filename, f)
}

func (h *Handlers) discardImage(ctx context.Context, url string) {
	if url == "" || h.images == nil {
		return
	}
	if err := h.images.Delete(ctx, url); err != nil {
		h.log.Warn().Err(err).Str("image_url", url).Msg("Failed to delete notice image")
	}
}

func (h *Handlers) activeAnywhere(n models.Notice, now time.Time) bool {
	screenID := ""
	if !n.IsGlobal() {
		screenID = n.TargetScreenIDs[0]
	}
	return notice.IsActive(n, screenID, now, h.loc)
}
