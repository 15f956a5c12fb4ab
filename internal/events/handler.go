package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/approval"
	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/status"
	"github.com/hapsayhub/backend/pkg/response"
	"github.com/hapsayhub/backend/pkg/storage"
)

// ImageStore uploads event images. Satisfied by *storage.S3.
type ImageStore interface {
	UploadImage(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

// CategoryRequest is the body for POST /categories and PUT /categories/:name.
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler handles event catalog and category endpoints.
type Handler struct {
	events     *bridge.Bridge[models.Event]
	workflow   *approval.Workflow
	categories *Categories
	images     ImageStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewHandler creates an events handler. images may be nil when S3 is not configured.
func NewHandler(events *bridge.Bridge[models.Event], workflow *approval.Workflow, categories *Categories, images ImageStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{events: events, workflow: workflow, categories: categories, images: images, logger: logger, now: time.Now}
}

// List handles GET /events. Statuses are recomputed for display, never written back.
func (h *Handler) List(c *gin.Context) {
	all, err := h.events.ReadAll(c.Request.Context())
	if err != nil {
		h.logger.Error("read events", zap.Error(err))
		response.FromError(c, err)
		return
	}
	status.Apply(all, h.now())
	response.OK(c, all)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	ev, err := h.events.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	ev.Status = status.Resolve(ev, h.now())
	response.OK(c, ev)
}

// Submit handles POST /events and PUT /events/:id (organizer).
func (h *Handler) Submit(c *gin.Context) {
	ev, ok := h.bindEvent(c)
	if !ok {
		return
	}
	saved, err := h.workflow.Submit(c.Request.Context(), ev)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respondSaved(c, saved)
}

// AdminSave handles POST /admin/events and PUT /admin/events/:id.
func (h *Handler) AdminSave(c *gin.Context) {
	ev, ok := h.bindEvent(c)
	if !ok {
		return
	}
	saved, err := h.workflow.AdminSave(c.Request.Context(), ev)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respondSaved(c, saved)
}

func (h *Handler) bindEvent(c *gin.Context) (models.Event, bool) {
	var ev models.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return models.Event{}, false
	}
	if id := c.Param("id"); id != "" {
		var pathID models.FlexInt
		if err := pathID.UnmarshalJSON([]byte(id)); err != nil || pathID == 0 {
			response.BadRequest(c, "invalid event id")
			return models.Event{}, false
		}
		ev.ID = pathID
	}
	return ev, true
}

func (h *Handler) respondSaved(c *gin.Context, ev models.Event) {
	if c.Param("id") == "" {
		response.Created(c, ev)
		return
	}
	response.OK(c, ev)
}

// Approve handles POST /admin/events/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	ev, err := h.workflow.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, ev)
}

// Decline handles POST /admin/events/:id/decline.
func (h *Handler) Decline(c *gin.Context) {
	if err := h.workflow.Decline(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// Delete handles DELETE /events/:id. The event image is removed after the record.
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	ev, err := h.events.Find(ctx, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if err := h.events.Delete(ctx, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	h.dropImage(ctx, ev.Image)
	response.NoContent(c)
}

func (h *Handler) dropImage(ctx context.Context, url string) {
	if h.images == nil || url == "" {
		return
	}
	if err := h.images.DeleteImage(ctx, url); err != nil {
		h.logger.Warn("image delete failed", zap.String("url", url), zap.Error(err))
	}
}

// UploadImage handles POST /events/:id/image (multipart field "file").
func (h *Handler) UploadImage(c *gin.Context) {
	if h.images == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	ev, err := h.events.Find(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fh.Size > storage.MaxImageSize {
		response.BadRequest(c, "image exceeds 5MB")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	ext, ok := storage.ImageExtension(contentType, fh.Filename)
	if !ok {
		response.BadRequest(c, "unsupported image type")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read file")
		return
	}
	defer f.Close()

	url, err := h.images.UploadImage(ctx, storage.ImageKey(id, uuid.New().String(), ext), contentType, f, fh.Size)
	if err != nil {
		h.logger.Warn("image upload failed", zap.String("event_id", id), zap.Error(err))
		response.BadGateway(c, "image upload failed")
		return
	}
	previous := ev.Image
	ev.Image = url
	if err := h.events.Save(ctx, ev); err != nil {
		response.FromError(c, err)
		return
	}
	h.dropImage(ctx, previous)
	response.OK(c, ev)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(c *gin.Context) {
	all, err := h.categories.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, all)
}

// AddCategory handles POST /categories.
func (h *Handler) AddCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "name", "category name is required")
		return
	}
	name, err := h.categories.Add(c.Request.Context(), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, name)
}

// RenameCategory handles PUT /categories/:name.
func (h *Handler) RenameCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "name", "category name is required")
		return
	}
	name, err := h.categories.Rename(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, name)
}

// DeleteCategory handles DELETE /categories/:name.
func (h *Handler) DeleteCategory(c *gin.Context) {
	err := h.categories.Delete(c.Request.Context(), c.Param("name"))
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, "category not found")
		return
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
