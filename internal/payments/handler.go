package payments

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hapsayhub/backend/pkg/response"
)

// Handler serves payment figures.
type Handler struct {
	svc *Service
}

// NewHandler creates a payments handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Pending handles GET /payments/pending?event_id=&fee=. A missing fee counts as zero.
func (h *Handler) Pending(c *gin.Context) {
	fee := decimal.Zero
	if raw := strings.TrimSpace(c.Query("fee")); raw != "" {
		f, err := decimal.NewFromString(raw)
		if err != nil || f.IsNegative() {
			response.Invalid(c, "fee", "fee must be a non-negative number")
			return
		}
		fee = f
	}
	out, err := h.svc.PendingVIP(c.Request.Context(), c.Query("event_id"), fee)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, out)
}
