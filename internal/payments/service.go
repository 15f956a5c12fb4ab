package payments

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/query"
)

// PendingRevenue is the VIP money still to be collected.
type PendingRevenue struct {
	EventID string          `json:"event_id"`
	Count   int             `json:"count"`
	Fee     decimal.Decimal `json:"fee"`
	Total   decimal.Decimal `json:"total"`
	Display string          `json:"display"`
}

// Service computes payment figures from the attendee collection.
type Service struct {
	attendees *bridge.Bridge[models.Attendee]
	logger    *zap.Logger
}

// NewService creates a payment service.
func NewService(attendees *bridge.Bridge[models.Attendee], logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{attendees: attendees, logger: logger}
}

// PendingVIP counts VIP attendees that have neither paid nor checked in, restricted to
// eventID unless it is empty or "all", and multiplies the count by fee.
func (s *Service) PendingVIP(ctx context.Context, eventID string, fee decimal.Decimal) (PendingRevenue, error) {
	list, err := s.attendees.ReadAll(ctx)
	if err != nil {
		return PendingRevenue{}, err
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		eventID = query.AllCategories
	}
	all := strings.EqualFold(eventID, query.AllCategories)

	n := 0
	for _, a := range list {
		if !all && strconv.FormatInt(int64(a.EventID), 10) != eventID {
			continue
		}
		if !a.TicketType.IsVIP() {
			continue
		}
		if a.Status == models.AttendeePaid || a.Status == models.AttendeeCheckedIn {
			continue
		}
		n++
	}
	total := fee.Mul(decimal.NewFromInt(int64(n)))
	return PendingRevenue{
		EventID: eventID,
		Count:   n,
		Fee:     fee,
		Total:   total,
		Display: FormatPeso(total),
	}, nil
}

// FormatPeso renders an amount as "P 1,234.50".
func FormatPeso(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return "P " + sign + b.String() + "." + frac
}
