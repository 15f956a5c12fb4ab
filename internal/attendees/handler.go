package attendees

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/query"
	"github.com/hapsayhub/backend/pkg/export"
	"github.com/hapsayhub/backend/pkg/response"
)

// StatusRequest is the body for PATCH /attendees/:ticketID/status.
type StatusRequest struct {
	Status models.AttendeeStatus `json:"status" binding:"required"`
}

// Handler handles attendee endpoints.
type Handler struct {
	svc    *Service
	loc    *time.Location
	logger *zap.Logger
}

// NewHandler creates an attendee handler; loc is the zone used for CSV dates.
func NewHandler(svc *Service, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, loc: loc, logger: logger}
}

// Register handles POST /events/:id/register. A failed confirmation email still
// answers 201; the email section carries the error message.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), c.Param("id"), req)
	var sf *models.SoftFailure
	if err != nil && !errors.As(err, &sf) {
		response.FromError(c, err)
		return
	}
	response.Created(c, reg)
}

// List handles GET /attendees?event_id=.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("event_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Remove handles DELETE /attendees/:ticketID.
func (h *Handler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("ticketID")); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// SetStatus handles PATCH /attendees/:ticketID/status.
func (h *Handler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "status", "status is required")
		return
	}
	a, err := h.svc.SetStatus(c.Request.Context(), c.Param("ticketID"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, a)
}

// Export handles GET /attendees/export?search=&filter= as a CSV download.
func (h *Handler) Export(c *gin.Context) {
	all, err := h.svc.List(c.Request.Context(), "")
	if err != nil {
		response.FromError(c, err)
		return
	}
	list := query.Filter(all, query.AttendeeSpec(), c.Query("search"), c.Query("filter"))
	if len(list) == 0 {
		response.NotFound(c, "no attendees to export")
		return
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, list, h.loc); err != nil {
		h.logger.Error("write attendee csv", zap.Error(err))
		response.Internal(c, "export failed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(ExportPrefix, time.Now().UTC())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
