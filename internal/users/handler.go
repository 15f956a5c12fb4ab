package users

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/pkg/export"
	"github.com/hapsayhub/backend/pkg/response"
)

// ExportPrefix names user CSV downloads.
const ExportPrefix = "Users_Export"

// RoleRequest is the body for POST /roles.
type RoleRequest struct {
	Name string `json:"name"`
}

// Handler handles user and role endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a user handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /users.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /users.
func (h *Handler) Create(c *gin.Context) {
	h.save(c, 0)
}

// Update handles PUT /users/:id.
func (h *Handler) Update(c *gin.Context) {
	var id models.FlexInt
	if err := id.UnmarshalJSON([]byte(c.Param("id"))); err != nil || id == 0 {
		response.BadRequest(c, "invalid user id")
		return
	}
	h.save(c, id)
}

func (h *Handler) save(c *gin.Context, id models.FlexInt) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.svc.Save(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if id == 0 {
		response.Created(c, u)
		return
	}
	response.OK(c, u)
}

// Toggle handles POST /users/:id/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	u, err := h.svc.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, u)
}

// Delete handles DELETE /users/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// Roles handles GET /roles.
func (h *Handler) Roles(c *gin.Context) {
	roles, err := h.svc.Roles(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, roles)
}

// AddRole handles POST /roles.
func (h *Handler) AddRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	roles, err := h.svc.AddRole(c.Request.Context(), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, roles)
}

// Export handles GET /users/export as a CSV download.
func (h *Handler) Export(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	if len(list) == 0 {
		response.NotFound(c, "no user data available to export")
		return
	}
	rows := make([][]export.Field, 0, len(list))
	for _, u := range list {
		access := "Denied"
		if u.CanLogin {
			access = "Granted"
		}
		rows = append(rows, []export.Field{
			export.Q(u.Name), export.Q(u.Email), export.Q(u.LoginID),
			export.Q(u.Role), export.Q(string(u.Status)), export.Raw(access),
		})
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, []string{"Name", "Email", "LoginID", "Role", "Status", "Login Access"}, rows); err != nil {
		response.Internal(c, "export failed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(ExportPrefix, time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
