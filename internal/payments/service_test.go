package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/store"
)

func seeded(t *testing.T) *Service {
	t.Helper()
	b := bridge.New(store.New(store.NewMemoryMedium(), store.KeyAttendees, models.AttendeeKey), nil, nil)
	ctx := context.Background()
	for _, a := range []models.Attendee{
		{TicketID: "HH-1", EventID: 1, TicketType: models.TicketVIP, Status: models.AttendeeRegistered},
		{TicketID: "HH-2", EventID: 1, TicketType: "VIP Pass", Status: models.AttendeeRegistered},
		{TicketID: "HH-3", EventID: 1, TicketType: models.TicketVIP, Status: models.AttendeePaid},
		{TicketID: "HH-4", EventID: 2, TicketType: models.TicketVIP, Status: models.AttendeeRegistered},
		{TicketID: "HH-5", EventID: 2, TicketType: models.TicketVIP, Status: models.AttendeeCheckedIn},
		{TicketID: "HH-6", EventID: 1, TicketType: models.TicketGeneral, Status: models.AttendeeRegistered},
	} {
		require.NoError(t, b.Save(ctx, a))
	}
	return NewService(b, nil)
}

func TestPendingVIP(t *testing.T) {
	svc := seeded(t)
	fee := decimal.RequireFromString("1500.50")

	all, err := svc.PendingVIP(context.Background(), "all", fee)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Count)
	assert.True(t, all.Total.Equal(decimal.RequireFromString("4501.50")))
	assert.Equal(t, "P 4,501.50", all.Display)

	one, err := svc.PendingVIP(context.Background(), "1", fee)
	require.NoError(t, err)
	assert.Equal(t, 2, one.Count)

	none, err := svc.PendingVIP(context.Background(), "99", fee)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Count)
	assert.Equal(t, "P 0.00", none.Display)
}

func TestFormatPeso(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "P 0.00"},
		{"999.999", "P 1,000.00"},
		{"1234567.5", "P 1,234,567.50"},
		{"-42", "P -42.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPeso(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestHandler_Pending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/payments/pending", NewHandler(seeded(t)).Pending)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/pending?event_id=2&fee=100", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"display":"P 100.00"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/pending?fee=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"fee"`)
}
