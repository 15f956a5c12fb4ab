package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapsayhub/backend/internal/models"
)

func TestPlaceName(t *testing.T) {
	tests := []struct {
		name    string
		address map[string]string
		display string
		want    string
	}{
		{"amenity wins", map[string]string{"amenity": "City Hall", "school": "UB"}, "x", "City Hall"},
		{"school before church", map[string]string{"school": "UB", "church": "St. Peter"}, "x", "UB"},
		{"building last", map[string]string{"building": "Tower 1", "road": "Main"}, "x", "Tower 1"},
		{"display name", map[string]string{"road": "Main"}, "Main St, Tagbilaran", "Main St, Tagbilaran"},
		{"nothing", nil, "", FallbackPlace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceName(tt.address, tt.display))
		})
	}
}

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "9.9177", r.URL.Query().Get("lat"))
		assert.Equal(t, "hapsayhub-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"address":{"port":"Tagbilaran Port"},"display_name":"somewhere"}`))
	}))
	defer srv.Close()

	place, err := NewClient(srv.URL+"/", "hapsayhub-test", time.Second, nil).Reverse(context.Background(), 9.9177, 124.1017)
	require.NoError(t, err)
	assert.Equal(t, "Tagbilaran Port", place)
}

func TestReverse_HTTPErrorIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second, nil).Reverse(context.Background(), 1, 1)
	var sf *models.SoftFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, "HTTP 429", sf.Message)
}

type stubResolver struct {
	place string
	err   error
}

func (s stubResolver) Reverse(context.Context, float64, float64) (string, error) {
	return s.place, s.err
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	run := func(res Resolver, query string) (*httptest.ResponseRecorder, Result) {
		r := gin.New()
		r.GET("/geocode/reverse", NewHandler(res).Reverse)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/geocode/reverse?"+query, nil))
		var body struct {
			Data Result `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		return w, body.Data
	}

	w, res := run(stubResolver{place: "Plaza"}, "lat=9.9&lon=124.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Plaza", res.Place)
	assert.False(t, res.Fallback)

	w, res = run(stubResolver{err: &models.SoftFailure{Op: "geocode", Message: "timeout"}}, "lat=9.9&lon=124.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, FallbackPlace, res.Place)
	assert.True(t, res.Fallback)

	w, _ = run(stubResolver{}, "lat=abc&lon=1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = run(stubResolver{}, "lat=1&lon=200")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
