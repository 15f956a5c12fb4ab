// Package mailer posts ticket confirmations to the mail endpoint.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/monitoring"
)

// Sender sends one ticket email.
type Sender interface {
	SendTicket(ctx context.Context, msg models.TicketEmail) (models.EmailDispatch, error)
}

// reply is the JSON body returned by the mail endpoint.
type reply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client posts form-encoded ticket emails. It never retries.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
	now      func() time.Time
}

// NewClient creates a mail client for endpoint with a per-call timeout.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		now:      time.Now,
	}
}

// SendTicket posts msg. Any transport failure, non-JSON body or status other than
// "success" returns a *models.SoftFailure alongside the error dispatch record.
func (c *Client) SendTicket(ctx context.Context, msg models.TicketEmail) (models.EmailDispatch, error) {
	d := models.EmailDispatch{TicketID: msg.TicketID, Recipient: msg.Email, At: c.now()}
	err := c.post(ctx, msg)
	monitoring.TrackOutbound("mailer", err)
	if err != nil {
		d.Status = models.EmailStatusError
		d.Message = err.Error()
		c.logger.Warn("ticket email failed", zap.String("ticket_id", msg.TicketID), zap.Error(err))
		return d, err
	}
	d.Status = models.EmailStatusSuccess
	c.logger.Info("ticket email sent", zap.String("ticket_id", msg.TicketID))
	return d, nil
}

func (c *Client) post(ctx context.Context, msg models.TicketEmail) error {
	form := url.Values{}
	form.Set("fname", msg.FirstName)
	form.Set("email", msg.Email)
	form.Set("eventName", msg.EventName)
	form.Set("ticketType", string(msg.TicketType))
	form.Set("phone", msg.Phone)
	form.Set("org", msg.Org)
	form.Set("ticketID", msg.TicketID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &models.SoftFailure{Op: "email", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.SoftFailure{Op: "email", Message: "connection error", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &models.SoftFailure{Op: "email", Message: "read response", Err: err}
	}
	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return &models.SoftFailure{Op: "email", Message: fmt.Sprintf("unexpected response (HTTP %d)", resp.StatusCode), Err: err}
	}
	if r.Status != models.EmailStatusSuccess {
		m := r.Message
		if m == "" {
			m = "mail endpoint reported " + r.Status
		}
		return &models.SoftFailure{Op: "email", Message: m}
	}
	return nil
}
