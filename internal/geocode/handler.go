package geocode

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hapsayhub/backend/pkg/response"
)

// Handler serves reverse geocoding for the location picker.
type Handler struct {
	resolver Resolver
}

// NewHandler creates a geocode handler.
func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Result is the body of GET /geocode/reverse. On failure Place holds the fallback
// and Message explains why.
type Result struct {
	Place    string `json:"place"`
	Fallback bool   `json:"fallback"`
	Message  string `json:"message,omitempty"`
}

// Reverse handles GET /geocode/reverse?lat=&lon=.
func (h *Handler) Reverse(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		response.Invalid(c, "lat", "lat must be a number between -90 and 90")
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		response.Invalid(c, "lon", "lon must be a number between -180 and 180")
		return
	}
	place, err := h.resolver.Reverse(c.Request.Context(), lat, lon)
	if err != nil {
		response.OK(c, Result{Place: FallbackPlace, Fallback: true, Message: err.Error()})
		return
	}
	response.OK(c, Result{Place: place})
}
