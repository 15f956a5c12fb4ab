// Package geocode resolves map coordinates to a place name for the event location field.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/monitoring"
)

// FallbackPlace is shown when no name can be resolved.
const FallbackPlace = "Selected Area"

// addressPriority lists the address parts preferred over display_name, in order.
var addressPriority = []string{"amenity", "school", "church", "port", "building"}

// Resolver turns coordinates into a place name.
type Resolver interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

type reverseReply struct {
	Address     map[string]string `json:"address"`
	DisplayName string            `json:"display_name"`
}

// Client queries a Nominatim-compatible reverse endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a reverse-geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Reverse returns the best place name for lat/lon. Failures are *models.SoftFailure.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	place, err := c.reverse(ctx, lat, lon)
	monitoring.TrackOutbound("geocode", err)
	if err != nil {
		c.logger.Warn("reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return "", err
	}
	return place, nil
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "18")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", &models.SoftFailure{Op: "geocode", Message: "build request", Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &models.SoftFailure{Op: "geocode", Message: "connection error", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &models.SoftFailure{Op: "geocode", Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var r reverseReply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", &models.SoftFailure{Op: "geocode", Message: "decode response", Err: err}
	}
	return PlaceName(r.Address, r.DisplayName), nil
}

// PlaceName picks the first non-empty preferred address part, then displayName,
// then FallbackPlace.
func PlaceName(address map[string]string, displayName string) string {
	for _, k := range addressPriority {
		if v := strings.TrimSpace(address[k]); v != "" {
			return v
		}
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		return displayName
	}
	return FallbackPlace
}
