package surface

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hapsayhub/backend/internal/worker"
	"github.com/hapsayhub/backend/pkg/response"
)

// OpenRequest is the body for POST /surfaces.
type OpenRequest struct {
	Kind Kind `json:"kind" binding:"required"`
}

// Handler handles surface session endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler creates a surface handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Open handles POST /surfaces.
func (h *Handler) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.manager.Open(c.Request.Context(), req.Kind)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, s.Summary())
}

// Get handles GET /surfaces/:id.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "surface not found")
		return
	}
	response.OK(c, s.Summary())
}

// Close handles DELETE /surfaces/:id.
func (h *Handler) Close(c *gin.Context) {
	if err := h.manager.Close(c.Param("id")); err != nil {
		response.NotFound(c, "surface not found")
		return
	}
	response.NoContent(c)
}

// Refresh handles POST /surfaces/:id/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "surface not found")
		return
	}
	if err := s.RefreshNow(); err != nil {
		if errors.Is(err, worker.ErrStopped) {
			response.NotFound(c, "surface not found")
			return
		}
		response.FromError(c, err)
		return
	}
	response.OK(c, s.Summary())
}

// Render returns a handler for GET /surfaces/:id/<view>.
func (h *Handler) Render(view View) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := h.manager.Get(c.Param("id"))
		if err != nil {
			response.NotFound(c, "surface not found")
			return
		}
		p, err := ParamsFromQuery(c)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		page, err := s.Render(view, p)
		if errors.Is(err, ErrViewUnavailable) {
			response.Forbidden(c, err.Error())
			return
		}
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.OK(c, page)
	}
}

// ParamsFromQuery reads search, filter, page and step query parameters.
func ParamsFromQuery(c *gin.Context) (Params, error) {
	var p Params
	if v, ok := c.GetQuery("search"); ok {
		p.Search = &v
	}
	if v, ok := c.GetQuery("filter"); ok {
		p.Filter = &v
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, errors.New("invalid page")
		}
		p.Page = n
	}
	if v := c.Query("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, errors.New("invalid step")
		}
		p.Step = n
	}
	return p, nil
}
