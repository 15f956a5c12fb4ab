package attendees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/mailer"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/status"
)

// TicketPrefix starts every ticket ID.
const TicketPrefix = "HH-"

// RegisterRequest is the visitor registration form.
type RegisterRequest struct {
	FirstName    string            `json:"fname"`
	LastName     string            `json:"lname"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Organization string            `json:"org"`
	TicketType   models.TicketType `json:"ticketType"`
}

// Registration is the stored attendee plus the outcome of the confirmation email.
type Registration struct {
	Attendee models.Attendee      `json:"attendee"`
	Email    models.EmailDispatch `json:"email"`
}

// Service registers and manages attendees.
type Service struct {
	attendees *bridge.Bridge[models.Attendee]
	events    *bridge.Bridge[models.Event]
	mail      mailer.Sender
	logger    *zap.Logger
	now       func() time.Time
	ticketID  func() string
}

// NewService creates the attendee service. mail may be nil to skip confirmations.
func NewService(attendees *bridge.Bridge[models.Attendee], events *bridge.Bridge[models.Event], mail mailer.Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		attendees: attendees,
		events:    events,
		mail:      mail,
		logger:    logger,
		now:       time.Now,
		ticketID:  NewTicketID,
	}
}

// NewTicketID returns "HH-" followed by 8 uppercase hex characters.
func NewTicketID() string {
	return TicketPrefix + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// Register records an attendee for eventID and then sends the confirmation email.
// Only events that resolve to Upcoming at the current time accept registrations.
// The attendee is stored before the email call and is kept if the email fails; in that
// case the returned error is the *models.SoftFailure and the Registration is still valid.
func (s *Service) Register(ctx context.Context, eventID string, req RegisterRequest) (Registration, error) {
	ev, err := s.events.Find(ctx, eventID)
	if err != nil {
		return Registration{}, err
	}
	if st := status.Resolve(ev, s.now()); st != models.StatusUpcoming {
		return Registration{}, &models.ValidationError{Field: "eventId", Message: fmt.Sprintf("event is %s and not open for registration", strings.ToLower(string(st)))}
	}
	if err := validate(&req); err != nil {
		return Registration{}, err
	}

	id, err := s.uniqueTicketID(ctx)
	if err != nil {
		return Registration{}, err
	}
	a := models.Attendee{
		TicketID:     id,
		EventID:      ev.ID,
		EventName:    ev.Name,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
		TicketType:   req.TicketType,
		Status:       models.AttendeeRegistered,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.attendees.Save(ctx, a); err != nil {
		return Registration{}, err
	}
	s.logger.Info("attendee registered", zap.String("ticket_id", a.TicketID), zap.Int64("event_id", int64(ev.ID)))

	reg := Registration{Attendee: a}
	if s.mail == nil {
		return reg, nil
	}
	reg.Email, err = s.mail.SendTicket(ctx, models.TicketEmailFor(a))
	return reg, err
}

func validate(req *RegisterRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Organization = strings.TrimSpace(req.Organization)
	for _, f := range []struct{ name, value string }{
		{"fname", req.FirstName},
		{"lname", req.LastName},
		{"email", req.Email},
		{"phone", req.Phone},
	} {
		if f.value == "" {
			return &models.ValidationError{Field: f.name, Message: f.name + " is required"}
		}
	}
	if !strings.Contains(req.Email, "@") {
		return &models.ValidationError{Field: "email", Message: "email is invalid"}
	}
	switch req.TicketType {
	case "":
		req.TicketType = models.TicketGeneral
	case models.TicketGeneral, models.TicketVIP, models.TicketStudent:
	default:
		return &models.ValidationError{Field: "ticketType", Message: "ticketType must be General, VIP or Student"}
	}
	return nil
}

func (s *Service) uniqueTicketID(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		id := s.ticketID()
		_, err := s.attendees.Find(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not allocate a unique ticket id")
}

// List returns attendees, optionally only those of eventID.
func (s *Service) List(ctx context.Context, eventID string) ([]models.Attendee, error) {
	all, err := s.attendees.ReadAll(ctx)
	if err != nil || eventID == "" {
		return all, err
	}
	out := all[:0]
	for _, a := range all {
		if models.EventKey(models.Event{ID: a.EventID}) == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Remove deletes an attendee by ticket ID.
func (s *Service) Remove(ctx context.Context, ticketID string) error {
	if _, err := s.attendees.Find(ctx, ticketID); err != nil {
		return err
	}
	return s.attendees.Delete(ctx, ticketID)
}

// SetStatus moves an attendee to Registered, Paid or Checked-in.
func (s *Service) SetStatus(ctx context.Context, ticketID string, st models.AttendeeStatus) (models.Attendee, error) {
	if !models.ValidAttendeeStatus(st) {
		return models.Attendee{}, &models.ValidationError{Field: "status", Message: "status must be Registered, Paid or Checked-in"}
	}
	a, err := s.attendees.Find(ctx, ticketID)
	if err != nil {
		return models.Attendee{}, err
	}
	a.Status = st
	if err := s.attendees.Save(ctx, a); err != nil {
		return models.Attendee{}, err
	}
	return a, nil
}
