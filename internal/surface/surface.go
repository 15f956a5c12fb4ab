// Package surface keeps one server-side session per open organizer, admin or visitor
// screen. Each session holds its own snapshot of the catalog and its own list state,
// and re-reads the shared medium on a timer and on every change notification.
package surface

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/monitoring"
	"github.com/hapsayhub/backend/internal/query"
	"github.com/hapsayhub/backend/internal/status"
	"github.com/hapsayhub/backend/internal/store"
	"github.com/hapsayhub/backend/internal/worker"
)

// Kind is the role a surface plays.
type Kind string

const (
	KindOrganizer Kind = "organizer"
	KindAdmin     Kind = "admin"
	KindVisitor   Kind = "visitor"
)

// View names a list rendered by a surface.
type View string

const (
	ViewEvents    View = "events"
	ViewAttendees View = "attendees"
	ViewUsers     View = "users"
	ViewVisitor   View = "visitor"
)

// ErrViewUnavailable is returned when a surface kind does not render the requested list.
var ErrViewUnavailable = errors.New("view not available for this surface")

// ValidKind reports whether k is a known surface kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindOrganizer, KindAdmin, KindVisitor:
		return true
	}
	return false
}

// Pusher delivers a message to the websocket clients watching a surface.
type Pusher interface {
	BroadcastToSurface(surfaceID string, event string, payload interface{})
}

// Catalog is the set of bridges a surface reads from.
type Catalog struct {
	Events     *bridge.Bridge[models.Event]
	Attendees  *bridge.Bridge[models.Attendee]
	Users      *bridge.Bridge[models.User]
	Categories *bridge.Bridge[string]
}

// Params adjusts list state before rendering. Nil pointers leave state unchanged.
type Params struct {
	Search *string
	Filter *string
	Page   int
	Step   int
}

// Summary describes a surface and its current snapshot.
type Summary struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	OpenedAt    time.Time      `json:"opened_at"`
	RefreshedAt time.Time      `json:"refreshed_at"`
	StatusCount map[string]int `json:"status_counts"`
	Categories  []string       `json:"categories"`
	LastError   string         `json:"last_error,omitempty"`
}

// Surface is one open screen.
type Surface struct {
	ID       string
	Kind     Kind
	OpenedAt time.Time

	catalog Catalog
	pusher  Pusher
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	lastSeen    time.Time
	refreshedAt time.Time
	lastErr     error
	events      []models.Event
	attendees   []models.Attendee
	users       []models.User
	categories  []string

	eventView    *query.View[models.Event]
	attendeeView *query.View[models.Attendee]
	userView     *query.View[models.User]
	visitorView  *query.View[models.Event]

	refresher *worker.Refresher
	cancelSub func()
}

func newSurface(id string, kind Kind, catalog Catalog, pusher Pusher, logger *zap.Logger, now func() time.Time) *Surface {
	t := now()
	return &Surface{
		ID:           id,
		Kind:         kind,
		OpenedAt:     t,
		catalog:      catalog,
		pusher:       pusher,
		logger:       logger.With(zap.String("surface_id", id), zap.String("kind", string(kind))),
		now:          now,
		lastSeen:     t,
		events:       []models.Event{},
		attendees:    []models.Attendee{},
		users:        []models.User{},
		categories:   []string{},
		eventView:    query.EventView(),
		attendeeView: query.AttendeeView(),
		userView:     query.UserView(),
		visitorView:  query.VisitorView(),
	}
}

// Refresh re-reads the catalog and recomputes every event's status. Nothing is written
// back. On a read failure the previous snapshot is kept.
func (s *Surface) Refresh(ctx context.Context, trigger string) error {
	events, attendees, users, categories, err := s.read(ctx)
	monitoring.TrackRefresh(string(s.Kind), trigger, err)
	if err != nil {
		var pe *store.ParseError
		if errors.As(err, &pe) {
			s.logger.Error("catalog document is corrupt", zap.String("key", pe.Key), zap.Error(err))
		} else {
			s.logger.Warn("refresh failed", zap.String("trigger", trigger), zap.Error(err))
		}
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	now := s.now()
	status.Apply(events, now)
	counts := status.Counts(events)

	s.mu.Lock()
	s.events = events
	s.attendees = attendees
	s.users = users
	s.categories = categories
	s.refreshedAt = now
	s.lastErr = nil
	s.mu.Unlock()

	monitoring.SetStatusCounts(counts)
	if s.pusher != nil {
		s.pusher.BroadcastToSurface(s.ID, "catalog_changed", map[string]interface{}{
			"trigger":       trigger,
			"status_counts": counts,
			"at":            now,
		})
	}
	return nil
}

// RefreshNow runs a manual refresh through the surface's refresher, waiting for any
// scheduled refresh in progress. It returns worker.ErrStopped once the surface is closed.
func (s *Surface) RefreshNow() error {
	if s.refresher == nil {
		return worker.ErrStopped
	}
	return s.refresher.Trigger(worker.TriggerManual)
}

func (s *Surface) read(ctx context.Context) ([]models.Event, []models.Attendee, []models.User, []string, error) {
	events, err := s.catalog.Events.ReadAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	categories, err := s.catalog.Categories.ReadAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if s.Kind == KindVisitor {
		return events, []models.Attendee{}, []models.User{}, categories, nil
	}
	attendees, err := s.catalog.Attendees.ReadAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	users := []models.User{}
	if s.Kind == KindAdmin {
		if users, err = s.catalog.Users.ReadAll(ctx); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return events, attendees, users, categories, nil
}

// watches reports whether a change to key affects this surface.
func (s *Surface) watches(key string) bool {
	switch key {
	case store.KeyEvents, store.KeyCategories:
		return true
	case store.KeyAttendees:
		return s.Kind != KindVisitor
	case store.KeyUsers:
		return s.Kind == KindAdmin
	}
	return false
}

func (s *Surface) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Surface) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Summary returns the surface metadata and status counts of its snapshot.
func (s *Surface) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{
		ID:          s.ID,
		Kind:        s.Kind,
		OpenedAt:    s.OpenedAt,
		RefreshedAt: s.refreshedAt,
		StatusCount: status.Counts(s.events),
		Categories:  append([]string(nil), s.categories...),
	}
	if s.lastErr != nil {
		sum.LastError = s.lastErr.Error()
	}
	return sum
}

func applyParams[T any](v *query.View[T], p Params) {
	if p.Search != nil {
		v.SetSearch(*p.Search)
	}
	if p.Filter != nil {
		v.SetCategory(*p.Filter)
	}
	if p.Page > 0 {
		v.SetPage(p.Page)
	}
	if p.Step != 0 {
		v.Step(p.Step)
	}
}

// Events renders the event table (organizer and admin).
func (s *Surface) Events(p Params) (query.Page[models.Event], error) {
	if s.Kind == KindVisitor {
		return query.Page[models.Event]{}, ErrViewUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	applyParams(s.eventView, p)
	return s.eventView.Render(s.events), nil
}

// Attendees renders the attendee table (organizer and admin).
func (s *Surface) Attendees(p Params) (query.Page[models.Attendee], error) {
	if s.Kind == KindVisitor {
		return query.Page[models.Attendee]{}, ErrViewUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	applyParams(s.attendeeView, p)
	return s.attendeeView.Render(s.attendees), nil
}

// Users renders the account table (admin only).
func (s *Surface) Users(p Params) (query.Page[models.UserPublic], error) {
	if s.Kind != KindAdmin {
		return query.Page[models.UserPublic]{}, ErrViewUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	applyParams(s.userView, p)
	page := s.userView.Render(s.users)
	out := query.Page[models.UserPublic]{
		Items:      make([]models.UserPublic, len(page.Items)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		PageSize:   page.PageSize,
	}
	for i := range page.Items {
		out.Items[i] = page.Items[i].ToPublic()
	}
	return out, nil
}

// Visitor renders the public event grid. Every surface kind may render it.
func (s *Surface) Visitor(p Params) query.Page[models.Event] {
	s.mu.Lock()
	defer s.mu.Unlock()
	applyParams(s.visitorView, p)
	return s.visitorView.Render(s.events)
}

// Render renders view by name.
func (s *Surface) Render(view View, p Params) (interface{}, error) {
	switch view {
	case ViewEvents:
		return s.Events(p)
	case ViewAttendees:
		return s.Attendees(p)
	case ViewUsers:
		return s.Users(p)
	case ViewVisitor:
		return s.Visitor(p), nil
	}
	return nil, ErrViewUnavailable
}
