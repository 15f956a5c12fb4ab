package mailer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapsayhub/backend/internal/models"
)

var ticket = models.TicketEmail{
	FirstName:  "Ana",
	Email:      "ana@example.com",
	EventName:  "Expo",
	TicketType: models.TicketVIP,
	Phone:      "0917",
	Org:        "ACME",
	TicketID:   "HH-ABCDEFGH",
}

func TestSendTicket_PostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Ana", r.PostForm.Get("fname"))
		assert.Equal(t, "ana@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "Expo", r.PostForm.Get("eventName"))
		assert.Equal(t, "VIP", r.PostForm.Get("ticketType"))
		assert.Equal(t, "0917", r.PostForm.Get("phone"))
		assert.Equal(t, "ACME", r.PostForm.Get("org"))
		assert.Equal(t, "HH-ABCDEFGH", r.PostForm.Get("ticketID"))
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, time.Second, nil).SendTicket(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, models.EmailStatusSuccess, d.Status)
	assert.Equal(t, "HH-ABCDEFGH", d.TicketID)
}

func TestSendTicket_ErrorStatusSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"SMTP auth failed"}`))
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, time.Second, nil).SendTicket(context.Background(), ticket)
	var sf *models.SoftFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, "SMTP auth failed", sf.Message)
	assert.Equal(t, models.EmailStatusError, d.Status)
}

func TestSendTicket_NonJSONAndTimeout(t *testing.T) {
	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<b>Fatal error</b>`))
	}))
	defer html.Close()
	_, err := NewClient(html.URL, time.Second, nil).SendTicket(context.Background(), ticket)
	var sf *models.SoftFailure
	require.True(t, errors.As(err, &sf))
	assert.Contains(t, sf.Message, "500")

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer slow.Close()
	_, err = NewClient(slow.URL, 20*time.Millisecond, nil).SendTicket(context.Background(), ticket)
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, "connection error", sf.Message)
}
