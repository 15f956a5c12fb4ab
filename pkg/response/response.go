package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/store"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"` // offending input field for validation/duplicate errors
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Invalid sends 400 naming the offending field.
func Invalid(c *gin.Context, field, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Field: field})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409 naming the conflicting field.
func Conflict(c *gin.Context, field, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err, Field: field})
}

// BadGateway sends 502 for a failed outbound collaborator.
func BadGateway(c *gin.Context, err string) {
	c.JSON(http.StatusBadGateway, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// FromError maps a domain error onto the envelope.
func FromError(c *gin.Context, err error) {
	var (
		ve *models.ValidationError
		de *models.DuplicateError
		pe *store.ParseError
		sf *models.SoftFailure
	)
	switch {
	case errors.As(err, &ve):
		Invalid(c, ve.Field, ve.Message)
	case errors.As(err, &de):
		Conflict(c, de.Field, de.Error())
	case errors.Is(err, models.ErrNotFound):
		NotFound(c, "not found")
	case errors.As(err, &pe):
		Internal(c, "stored "+pe.Key+" document is corrupt")
	case errors.As(err, &sf):
		BadGateway(c, sf.Error())
	default:
		Internal(c, "internal error")
	}
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}
